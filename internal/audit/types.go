package audit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	periodModeFlagValue             = 1
	integerArgumentTemplateConstant = "%s %q must be an integer"
	invalidArgumentsTemplate        = "invalid commits arguments: %w"
	isPeriodArgumentName            = "IS_PERIOD"
	periodArgumentName              = "PERIOD"
)

// CommandOptions holds the positional arguments of the commits command.
type CommandOptions struct {
	Usernames       []string `validate:"min=1,dive,required"`
	MonthStart      string   `validate:"required"`
	MonthEnd        string   `validate:"required_unless=PeriodMode true"`
	TeamName        string   `validate:"required,excludesall=/"`
	PeriodMode      bool
	Period          int    `validate:"gte=0"`
	ApplicationName string `validate:"required"`
}

// IntegerArgumentError reports a numeric argument that could not be parsed.
type IntegerArgumentError struct {
	Argument string
	Value    string
}

// Error describes the malformed number.
func (argumentError IntegerArgumentError) Error() string {
	return fmt.Sprintf(integerArgumentTemplateConstant, argumentError.Argument, argumentError.Value)
}

// ParseCommandOptions interprets USERNAMES MONTH_START MONTH_END TEAM_NAME IS_PERIOD PERIOD
// APPLICATION_NAME. USERNAMES is whitespace separated; IS_PERIOD equal to 1 selects period mode.
func ParseCommandOptions(arguments []string) (CommandOptions, error) {
	if len(arguments) < requiredArgumentCountConstant {
		return CommandOptions{}, ErrMissingArguments
	}

	isPeriodValue, isPeriodError := parseInteger(isPeriodArgumentName, arguments[4])
	if isPeriodError != nil {
		return CommandOptions{}, isPeriodError
	}
	periodValue, periodError := parseInteger(periodArgumentName, arguments[5])
	if periodError != nil {
		return CommandOptions{}, periodError
	}

	options := CommandOptions{
		Usernames:       strings.Fields(arguments[0]),
		MonthStart:      strings.TrimSpace(arguments[1]),
		MonthEnd:        strings.TrimSpace(arguments[2]),
		TeamName:        strings.TrimSpace(arguments[3]),
		PeriodMode:      isPeriodValue == periodModeFlagValue,
		Period:          periodValue,
		ApplicationName: strings.TrimSpace(arguments[6]),
	}
	if validationError := validator.New().Struct(options); validationError != nil {
		return CommandOptions{}, fmt.Errorf(invalidArgumentsTemplate, validationError)
	}
	return options, nil
}

func parseInteger(argumentName string, value string) (int, error) {
	parsedValue, parseError := strconv.Atoi(strings.TrimSpace(value))
	if parseError != nil {
		return 0, IntegerArgumentError{Argument: argumentName, Value: value}
	}
	return parsedValue, nil
}
