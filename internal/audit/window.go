package audit

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/temirov/repoaudit/internal/commits"
)

const (
	monthLayoutConstant            = "2006-01"
	invalidMonthTemplateConstant   = "%s %q must use the YYYY-MM format"
	windowInvertedTemplateConstant = "audit window starts at %s after it ends at %s"
	negativePeriodMessageConstant  = "period must not be negative"
	monthStartArgumentName         = "MONTH_START"
	monthEndArgumentName           = "MONTH_END"
)

// ErrNegativePeriod indicates a period-mode window with a negative month count.
var ErrNegativePeriod = errors.New(negativePeriodMessageConstant)

// InvalidMonthError reports a month argument outside the YYYY-MM format.
type InvalidMonthError struct {
	Argument string
	Value    string
}

// Error describes the malformed month.
func (monthError InvalidMonthError) Error() string {
	return fmt.Sprintf(invalidMonthTemplateConstant, monthError.Argument, monthError.Value)
}

// WindowInvertedError reports a start month after the end month.
type WindowInvertedError struct {
	Start string
	End   string
}

// Error describes the inverted window.
func (windowError WindowInvertedError) Error() string {
	return fmt.Sprintf(windowInvertedTemplateConstant, windowError.Start, windowError.End)
}

// Window is the inclusive range of calendar months covered by a report.
type Window struct {
	StartMonth time.Time
	EndMonth   time.Time
}

// ResolveWindow derives the audit window from the command arguments. In period mode the
// window ends at monthStart and begins period months earlier; monthEnd is ignored.
// Otherwise the window spans monthStart through monthEnd.
func ResolveWindow(monthStart string, monthEnd string, periodMode bool, period int) (Window, error) {
	startMonth, startError := parseMonth(monthStartArgumentName, monthStart)
	if startError != nil {
		return Window{}, startError
	}

	if periodMode {
		if period < 0 {
			return Window{}, ErrNegativePeriod
		}
		return Window{StartMonth: startMonth.AddDate(0, -period, 0), EndMonth: startMonth}, nil
	}

	endMonth, endError := parseMonth(monthEndArgumentName, monthEnd)
	if endError != nil {
		return Window{}, endError
	}
	if startMonth.After(endMonth) {
		return Window{}, WindowInvertedError{Start: startMonth.Format(monthLayoutConstant), End: endMonth.Format(monthLayoutConstant)}
	}
	return Window{StartMonth: startMonth, EndMonth: endMonth}, nil
}

func parseMonth(argumentName string, value string) (time.Time, error) {
	parsedMonth, parseError := time.ParseInLocation(monthLayoutConstant, strings.TrimSpace(value), time.UTC)
	if parseError != nil {
		return time.Time{}, InvalidMonthError{Argument: argumentName, Value: value}
	}
	return parsedMonth, nil
}

// StartLabel renders the first month as YYYY-MM.
func (window Window) StartLabel() string {
	return window.StartMonth.Format(monthLayoutConstant)
}

// EndLabel renders the last month as YYYY-MM.
func (window Window) EndLabel() string {
	return window.EndMonth.Format(monthLayoutConstant)
}

// Since is midnight UTC on the first day of the start month.
func (window Window) Since() time.Time {
	return window.StartMonth
}

// Until is 23:59:59 UTC on the last day of the end month.
func (window Window) Until() time.Time {
	return window.EndMonth.AddDate(0, 1, 0).Add(-time.Second)
}

// CommitWindow converts the window into commit query bounds.
func (window Window) CommitWindow() commits.Window {
	return commits.Window{Since: window.Since(), Until: window.Until()}
}
