package audit

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/repoaudit/internal/commits"
	"github.com/temirov/repoaudit/internal/outputs"
)

const (
	commitSourceRequiredMessage     = "audit requires a commit source"
	runLoggerRequiredMessage        = "audit requires a run logger"
	fetchingCommitsTemplate         = "Fetching commits for user %s in repository %s"
	commitsFetchedTemplate          = "Commits fetched for user %s in repository %s"
	notContributorTemplate          = "%s may not be a contributor to the repository %s"
	fetchingCommitsFailedTemplate   = "failed to fetch commits for user %s in repository %s"
	repositoryEntryInvalidTemplate  = "failed to audit repository %s"
	logFieldOrganizationConstant    = "org_name"
	logFieldRepositoryConstant      = "repo_name"
	logFieldUserConstant            = "user"
	logFieldRepositoryEntryConstant = "repository_entry"
	logFieldCommitCountConstant     = "commits"
)

var (
	// ErrCommitSourceRequired indicates the service was built without a commit source.
	ErrCommitSourceRequired = errors.New(commitSourceRequiredMessage)
	// ErrRunLoggerRequired indicates the service was built without a run logger.
	ErrRunLoggerRequired = errors.New(runLoggerRequiredMessage)
)

// Service collects commits repository by repository and user by user.
type Service struct {
	source commits.Source
	logger RunLogger
}

// NewService validates collaborators and constructs a Service.
func NewService(source commits.Source, logger RunLogger) (*Service, error) {
	if source == nil {
		return nil, ErrCommitSourceRequired
	}
	if logger == nil {
		return nil, ErrRunLoggerRequired
	}
	return &Service{source: source, logger: logger}, nil
}

// Collect fetches every user's commits in every repository entry, strictly in order:
// repositories outer, users inner. Failures skip the affected entry or user.
// Cancellation of executionContext stops the run and returns what was collected.
func (service *Service) Collect(executionContext context.Context, repositoryEntries []string, users []string, window Window) (*Table, error) {
	table := NewTable()
	for _, repositoryEntry := range repositoryEntries {
		coordinates, parseError := outputs.ParseRepositoryURL(repositoryEntry)
		if parseError != nil {
			service.logger.Failure(fmt.Sprintf(repositoryEntryInvalidTemplate, repositoryEntry), parseError, zap.String(logFieldRepositoryEntryConstant, repositoryEntry))
			continue
		}

		repository := commits.RepositoryContext{
			Organization: coordinates.Organization,
			Repository:   coordinates.Repository,
			Window:       window.CommitWindow(),
		}
		table.Merge(service.collectRepository(executionContext, repository, users))

		if contextError := executionContext.Err(); contextError != nil {
			return table, contextError
		}
	}
	return table, nil
}

func (service *Service) collectRepository(executionContext context.Context, repository commits.RepositoryContext, users []string) *Table {
	repositoryTable := NewTable()
	for _, user := range users {
		if executionContext.Err() != nil {
			break
		}
		userFields := []zap.Field{
			zap.String(logFieldOrganizationConstant, repository.Organization),
			zap.String(logFieldRepositoryConstant, repository.Repository),
			zap.String(logFieldUserConstant, user),
		}

		service.logger.Info(fmt.Sprintf(fetchingCommitsTemplate, user, repository.Repository), userFields...)
		records, fetchError := service.source.FetchCommits(executionContext, repository, user)
		if fetchError != nil {
			service.logger.Failure(fmt.Sprintf(fetchingCommitsFailedTemplate, user, repository.Repository), fetchError, userFields...)
			continue
		}
		if len(records) == 0 {
			service.logger.Warning(fmt.Sprintf(notContributorTemplate, user, repository.Repository), userFields...)
			continue
		}

		repositoryTable.Append(records...)
		service.logger.Success(
			fmt.Sprintf(commitsFetchedTemplate, user, repository.Repository),
			append(userFields, zap.Int(logFieldCommitCountConstant, len(records)))...,
		)
	}
	return repositoryTable
}
