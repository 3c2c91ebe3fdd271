package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gammazero/workerpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/repoaudit/internal/gitapi"
	"github.com/temirov/repoaudit/internal/outputs"
)

const (
	metadataClientRequiredMessage       = "discovery requires a metadata client"
	runLoggerRequiredMessage            = "discovery requires a run logger"
	outputPathRequiredMessage           = "discovery requires output file paths"
	fetchingRepositoriesTemplate        = "Fetching repos of org %s for application %s"
	fetchingRepositoriesFailedTemplate  = "failed to fetch repos of org %s"
	fetchingRepositoriesDetailsTemplate = "Fetching repo-details of %d repositories of org %s"
	fetchingDetailsTemplate             = "Fetching repo-details of org %s repo %s"
	fetchingDetailsFailedTemplate       = "failed to fetch repo-details of org %s repo %s"
	invalidSummaryTemplate              = "skipping malformed repository entry %d of org %s"
	missingPropertiesTemplate           = "repository %s of org %s lacks audit properties"
	eligibleRepositoriesTemplate        = "%d of %d repositories of org %s require audit for application %s"
	fetchingTeamUsersTemplate           = "Fetching users of a team %s in org %s"
	fetchingTeamUsersFailedTemplate     = "failed to fetch users of a team %s in org %s"
	writeFailedTemplate                 = "unable to write %s"
	emptyTeamWarningTemplate            = "team %s in org %s has no groups"
	teamUserLineTemplate                = "%s=%s"
	teamLoginSeparatorConstant          = " "
	logFieldOrganizationConstant        = "org_name"
	logFieldRepositoryConstant          = "repo_name"
	logFieldTeamConstant                = "team_id"
	logFieldApplicationConstant         = "application_name"
	logFieldPathConstant                = "path"
	logFieldIndexConstant               = "index"
	logFieldWorkerCountConstant         = "workers"
	repositoriesTaskNameConstant        = "repositories"
	teamUsersTaskNameConstant           = "team_users"
)

var (
	// ErrMetadataClientRequired indicates the service was built without a client.
	ErrMetadataClientRequired = errors.New(metadataClientRequiredMessage)
	// ErrRunLoggerRequired indicates the service was built without a run logger.
	ErrRunLoggerRequired = errors.New(runLoggerRequiredMessage)
	// ErrOutputPathRequired indicates an output file path was left blank.
	ErrOutputPathRequired = errors.New(outputPathRequiredMessage)
)

// Options identifies what a discovery run looks up.
type Options struct {
	OrganizationName string `validate:"required"`
	TeamIdentifier   string `validate:"required"`
	ApplicationName  string `validate:"required"`
}

// ServiceConfiguration controls fan-out and output locations.
type ServiceConfiguration struct {
	// Concurrency caps simultaneous repository detail requests; zero means one worker per repository.
	Concurrency        int
	RepositoryListPath string
	TeamUsersPath      string
}

// TaskResult describes the outcome of one of the two discovery tasks.
type TaskResult struct {
	Name       string
	OutputPath string
	Entries    int
	Err        error
}

// Succeeded reports whether the task wrote its output file.
func (result TaskResult) Succeeded() bool {
	return result.Err == nil
}

// Result aggregates both task outcomes.
type Result struct {
	Repositories TaskResult
	TeamUsers    TaskResult
}

// Service runs repository discovery and team resolution.
type Service struct {
	client        MetadataClient
	logger        RunLogger
	configuration ServiceConfiguration
}

// NewService validates collaborators and constructs a Service.
func NewService(client MetadataClient, logger RunLogger, configuration ServiceConfiguration) (*Service, error) {
	if client == nil {
		return nil, ErrMetadataClientRequired
	}
	if logger == nil {
		return nil, ErrRunLoggerRequired
	}
	if len(strings.TrimSpace(configuration.RepositoryListPath)) == 0 || len(strings.TrimSpace(configuration.TeamUsersPath)) == 0 {
		return nil, ErrOutputPathRequired
	}
	return &Service{client: client, logger: logger, configuration: configuration}, nil
}

// Run executes both tasks concurrently. A failed task never cancels its sibling.
func (service *Service) Run(executionContext context.Context, options Options) Result {
	var result Result
	var taskGroup errgroup.Group

	taskGroup.Go(func() error {
		result.Repositories = service.discoverRepositories(executionContext, options)
		return result.Repositories.Err
	})
	taskGroup.Go(func() error {
		result.TeamUsers = service.resolveTeamUsers(executionContext, options)
		return result.TeamUsers.Err
	})
	_ = taskGroup.Wait()

	return result
}

type detailOutcome struct {
	detail gitapi.RepositoryDetail
	err    error
}

func (service *Service) discoverRepositories(executionContext context.Context, options Options) TaskResult {
	taskResult := TaskResult{Name: repositoriesTaskNameConstant, OutputPath: service.configuration.RepositoryListPath}
	organizationField := zap.String(logFieldOrganizationConstant, options.OrganizationName)

	service.logger.Info(
		fmt.Sprintf(fetchingRepositoriesTemplate, options.OrganizationName, options.ApplicationName),
		organizationField,
		zap.String(logFieldApplicationConstant, options.ApplicationName),
	)
	summaries, listError := service.client.ListRepositories(executionContext, options.OrganizationName)
	if listError != nil {
		service.logger.Failure(fmt.Sprintf(fetchingRepositoriesFailedTemplate, options.OrganizationName), listError, organizationField)
		taskResult.Err = listError
		return taskResult
	}

	outcomes := service.fetchDetails(executionContext, options.OrganizationName, summaries)

	repositoryURLs := make([]string, 0, len(summaries))
	for summaryIndex, summary := range summaries {
		outcome := outcomes[summaryIndex]
		if outcome.err != nil {
			continue
		}
		eligible, eligibilityError := IsAuditRequired(outcome.detail, options.ApplicationName)
		if eligibilityError != nil {
			service.logger.Failure(
				fmt.Sprintf(missingPropertiesTemplate, summary.Name, options.OrganizationName),
				eligibilityError,
				organizationField,
				zap.String(logFieldRepositoryConstant, summary.Name),
			)
			continue
		}
		if eligible {
			repositoryURLs = append(repositoryURLs, outputs.RepositoryURL(summary.HTMLURL))
		}
	}

	service.logger.Info(
		fmt.Sprintf(eligibleRepositoriesTemplate, len(repositoryURLs), len(summaries), options.OrganizationName, options.ApplicationName),
		organizationField,
	)

	if writeError := outputs.WriteLines(taskResult.OutputPath, repositoryURLs); writeError != nil {
		service.logger.Failure(fmt.Sprintf(writeFailedTemplate, taskResult.OutputPath), writeError, zap.String(logFieldPathConstant, taskResult.OutputPath))
		taskResult.Err = writeError
		return taskResult
	}

	taskResult.Entries = len(repositoryURLs)
	return taskResult
}

// fetchDetails resolves every summary through the worker pool. Outcomes keep the
// listing order; failed or malformed entries carry an error marker.
func (service *Service) fetchDetails(executionContext context.Context, organizationName string, summaries []gitapi.RepositorySummary) []detailOutcome {
	outcomes := make([]detailOutcome, len(summaries))
	if len(summaries) == 0 {
		return outcomes
	}

	workerCount := service.configuration.Concurrency
	if workerCount <= 0 || workerCount > len(summaries) {
		workerCount = len(summaries)
	}
	service.logger.Info(fmt.Sprintf(fetchingRepositoriesDetailsTemplate, len(summaries), organizationName), zap.Int(logFieldWorkerCountConstant, workerCount))

	pool := workerpool.New(workerCount)
	for summaryIndex := range summaries {
		summary := summaries[summaryIndex]
		if validationError := summary.Validate(); validationError != nil {
			service.logger.Failure(
				fmt.Sprintf(invalidSummaryTemplate, summaryIndex, organizationName),
				validationError,
				zap.String(logFieldOrganizationConstant, organizationName),
				zap.Int(logFieldIndexConstant, summaryIndex),
			)
			outcomes[summaryIndex] = detailOutcome{err: validationError}
			continue
		}

		pool.Submit(func() {
			outcomes[summaryIndex] = service.fetchDetail(executionContext, organizationName, summary.Name)
		})
	}
	pool.StopWait()

	return outcomes
}

func (service *Service) fetchDetail(executionContext context.Context, organizationName string, repositoryName string) detailOutcome {
	repositoryFields := []zap.Field{
		zap.String(logFieldOrganizationConstant, organizationName),
		zap.String(logFieldRepositoryConstant, repositoryName),
	}

	service.logger.Info(fmt.Sprintf(fetchingDetailsTemplate, organizationName, repositoryName), repositoryFields...)
	detail, detailError := service.client.RepositoryDetail(executionContext, organizationName, repositoryName)
	if detailError != nil {
		service.logger.Failure(fmt.Sprintf(fetchingDetailsFailedTemplate, organizationName, repositoryName), detailError, repositoryFields...)
		return detailOutcome{err: detailError}
	}
	return detailOutcome{detail: detail}
}

func (service *Service) resolveTeamUsers(executionContext context.Context, options Options) TaskResult {
	taskResult := TaskResult{Name: teamUsersTaskNameConstant, OutputPath: service.configuration.TeamUsersPath}
	teamFields := []zap.Field{
		zap.String(logFieldOrganizationConstant, options.OrganizationName),
		zap.String(logFieldTeamConstant, options.TeamIdentifier),
	}

	service.logger.Info(fmt.Sprintf(fetchingTeamUsersTemplate, options.TeamIdentifier, options.OrganizationName), teamFields...)
	groups, membersError := service.client.TeamMembers(executionContext, options.OrganizationName, options.TeamIdentifier)
	if membersError != nil {
		service.logger.Failure(fmt.Sprintf(fetchingTeamUsersFailedTemplate, options.TeamIdentifier, options.OrganizationName), membersError, teamFields...)
		taskResult.Err = membersError
		return taskResult
	}
	if len(groups) == 0 {
		service.logger.Warning(fmt.Sprintf(emptyTeamWarningTemplate, options.TeamIdentifier, options.OrganizationName), teamFields...)
	}

	teamUserLines := FormatTeamUserLines(groups)
	if writeError := outputs.WriteLines(taskResult.OutputPath, teamUserLines); writeError != nil {
		service.logger.Failure(fmt.Sprintf(writeFailedTemplate, taskResult.OutputPath), writeError, zap.String(logFieldPathConstant, taskResult.OutputPath))
		taskResult.Err = writeError
		return taskResult
	}

	taskResult.Entries = len(teamUserLines)
	return taskResult
}

// FormatTeamUserLines renders each group as "group=login1 login2".
func FormatTeamUserLines(groups gitapi.TeamUserList) []string {
	lines := make([]string, 0, len(groups))
	for _, group := range groups {
		lines = append(lines, fmt.Sprintf(teamUserLineTemplate, group.Name, strings.Join(group.Logins(), teamLoginSeparatorConstant)))
	}
	return lines
}
