package audit

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/temirov/repoaudit/internal/commits"
)

const (
	csvHeaderOrganizationName      = "organization_name"
	csvHeaderRepositoryName        = "repository_name"
	csvHeaderUser                  = "user"
	csvHeaderCommitSHA             = "commit_sha"
	csvHeaderCommitDate            = "commit_date"
	csvHeaderCommitMessage         = "commit_message"
	preambleTemplateConstant       = "\n\nAudit Report from %s to %s\n\nTeam_Name:%s\n\nApplication: %s\n\n"
	reportFileNameTemplateConstant = "%s-%s-to-%s-audit.csv"
	reportDirectoryPermissions     = 0o755
	reportFilePermissions          = 0o644
	reportDirectoryErrorTemplate   = "unable to prepare report directory %s: %w"
	reportCreateErrorTemplate      = "unable to create report %s: %w"
	reportWriteErrorTemplate       = "unable to write report: %w"
)

var csvHeader = []string{
	csvHeaderOrganizationName,
	csvHeaderRepositoryName,
	csvHeaderUser,
	csvHeaderCommitSHA,
	csvHeaderCommitDate,
	csvHeaderCommitMessage,
}

type recordKey struct {
	repositoryName string
	sha            string
	user           string
}

// Table accumulates commit records in arrival order, keeping only the first
// record for each repository, commit and user.
type Table struct {
	records []commits.Record
	seen    map[recordKey]struct{}
}

// NewTable constructs an empty Table.
func NewTable() *Table {
	return &Table{seen: make(map[recordKey]struct{})}
}

// Append adds records that are not already present and returns how many were added.
func (table *Table) Append(records ...commits.Record) int {
	added := 0
	for _, record := range records {
		key := recordKey{repositoryName: record.RepositoryName, sha: record.SHA, user: record.User}
		if _, duplicate := table.seen[key]; duplicate {
			continue
		}
		table.seen[key] = struct{}{}
		table.records = append(table.records, record)
		added++
	}
	return added
}

// Merge appends the records of other after those of table.
func (table *Table) Merge(other *Table) {
	if other == nil {
		return
	}
	table.Append(other.records...)
}

// Records returns a copy of the accumulated records.
func (table *Table) Records() []commits.Record {
	return append([]commits.Record(nil), table.records...)
}

// Len returns the number of distinct records.
func (table *Table) Len() int {
	return len(table.records)
}

// ReportMetadata is rendered in the preamble preceding the CSV table.
type ReportMetadata struct {
	TeamName        string
	ApplicationName string
	PeriodStart     string
	PeriodEnd       string
}

// Preamble renders the free-text block written before the header row.
func (metadata ReportMetadata) Preamble() string {
	return fmt.Sprintf(preambleTemplateConstant, metadata.PeriodStart, metadata.PeriodEnd, metadata.TeamName, metadata.ApplicationName)
}

// FileName returns {team}-{start}-to-{end}-audit.csv.
func (metadata ReportMetadata) FileName() string {
	return fmt.Sprintf(reportFileNameTemplateConstant, metadata.TeamName, metadata.PeriodStart, metadata.PeriodEnd)
}

// WriteReport writes the preamble followed by the CSV header and one row per record.
func WriteReport(writer io.Writer, metadata ReportMetadata, table *Table) error {
	if _, preambleError := io.WriteString(writer, metadata.Preamble()); preambleError != nil {
		return fmt.Errorf(reportWriteErrorTemplate, preambleError)
	}

	csvWriter := csv.NewWriter(writer)
	if headerError := csvWriter.Write(csvHeader); headerError != nil {
		return fmt.Errorf(reportWriteErrorTemplate, headerError)
	}
	for _, record := range table.records {
		row := []string{record.OrganizationName, record.RepositoryName, record.User, record.SHA, record.Date, record.Message}
		if rowError := csvWriter.Write(row); rowError != nil {
			return fmt.Errorf(reportWriteErrorTemplate, rowError)
		}
	}
	csvWriter.Flush()
	if flushError := csvWriter.Error(); flushError != nil {
		return fmt.Errorf(reportWriteErrorTemplate, flushError)
	}
	return nil
}

// WriteReportFile creates directory when missing and writes the report into it.
// The path of the written file is returned.
func WriteReportFile(directory string, metadata ReportMetadata, table *Table) (string, error) {
	if mkdirError := os.MkdirAll(directory, reportDirectoryPermissions); mkdirError != nil {
		return "", fmt.Errorf(reportDirectoryErrorTemplate, directory, mkdirError)
	}

	reportPath := filepath.Join(directory, metadata.FileName())
	reportFile, createError := os.OpenFile(reportPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, reportFilePermissions)
	if createError != nil {
		return "", fmt.Errorf(reportCreateErrorTemplate, reportPath, createError)
	}

	if writeError := WriteReport(reportFile, metadata, table); writeError != nil {
		_ = reportFile.Close()
		return "", writeError
	}
	if closeError := reportFile.Close(); closeError != nil {
		return "", fmt.Errorf(reportCreateErrorTemplate, reportPath, closeError)
	}
	return reportPath, nil
}
