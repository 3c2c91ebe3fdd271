package discovery

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/repoaudit/internal/gitapi"
	"github.com/temirov/repoaudit/internal/outputs"
	"github.com/temirov/repoaudit/internal/runlog"
)

const (
	commandUseConstant                  = "discover ORG_NAME TEAM_ID APPLICATION_NAME"
	commandShortDescriptionConstant     = "Discover repositories requiring audit and the members of a team"
	commandLongDescriptionConstant      = "discover lists the repositories of an organization, keeps those whose Audit property is yes or sox and whose Application property matches APPLICATION_NAME, and writes them to repos.txt. The members of TEAM_ID are written to team_users.txt as group=login lines."
	requiredArgumentCountConstant       = 3
	runLogCategoryConstant              = "api-git-internal-api"
	runBannerConstant                   = "RUNNING discover"
	completedBannerConstant             = "COMPLETED discover"
	missingArgumentsMessageConstant     = "program argument not provided expected three arguments 1st ORG_NAME 2nd TEAM_ID 3rd APPLICATION_NAME"
	invalidArgumentsTemplateConstant    = "invalid discover arguments: %w"
	runLogOpenErrorTemplateConstant     = "unable to open run log: %w"
	runLockMessageConstant              = "unable to lock the output directory"
	clientCreationErrorTemplateConstant = "unable to create git api client: %w"
	startingMessageTemplateConstant     = "Fetching data for org %s and team %s and application %s"
	repositoriesSuccessTemplateConstant = "%s file successfully populated with filtered data"
	teamUsersSuccessTemplateConstant    = "%s file successfully populated with users data"
	taskFailedTemplateConstant          = "%s was not written"
	logFieldEntriesConstant             = "entries"
)

// ErrMissingArguments indicates fewer than three positional arguments were supplied.
var ErrMissingArguments = errors.New(missingArgumentsMessageConstant)

// LoggerProvider supplies the diagnostic zap logger.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current discover configuration.
type ConfigurationProvider func() CommandConfiguration

// LogDirectoryProvider returns the directory hosting run log files; blank disables them.
type LogDirectoryProvider func() string

// CommandBuilder assembles the discover cobra command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	LogDirectoryProvider  LogDirectoryProvider
	MetadataClient        MetadataClient
	HTTPClient            gitapi.HTTPClient
	Clock                 runlog.Clock
}

// Build constructs the discover command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}
	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) (runError error) {
	configuration := builder.resolveConfiguration()

	session, sessionError := runlog.Open(runlog.Options{
		Category:   runLogCategoryConstant,
		Directory:  builder.resolveLogDirectory(),
		Console:    command.OutOrStdout(),
		Diagnostic: builder.resolveLogger(),
		Clock:      builder.Clock,
	})
	if sessionError != nil {
		return fmt.Errorf(runLogOpenErrorTemplateConstant, sessionError)
	}
	defer func() {
		runError = errors.Join(runError, session.Close())
	}()

	session.Banner(runBannerConstant)
	if len(arguments) < requiredArgumentCountConstant {
		session.Abort(missingArgumentsMessageConstant, ErrMissingArguments)
		return ErrMissingArguments
	}

	options, optionsError := parseOptions(arguments)
	if optionsError != nil {
		session.Abort(optionsError.Error(), optionsError)
		return optionsError
	}

	runLock, lockError := outputs.AcquireRunLock(configuration.OutputDirectory)
	if lockError != nil {
		session.Abort(runLockMessageConstant, lockError)
		return lockError
	}
	defer func() {
		runError = errors.Join(runError, runLock.Release())
	}()

	client, clientError := builder.resolveMetadataClient(configuration)
	if clientError != nil {
		session.Abort(clientError.Error(), clientError)
		return clientError
	}

	service, serviceError := NewService(client, session, ServiceConfiguration{
		Concurrency:        configuration.Concurrency,
		RepositoryListPath: configuration.RepositoryListPath(),
		TeamUsersPath:      configuration.TeamUsersPath(),
	})
	if serviceError != nil {
		return serviceError
	}

	session.Info(fmt.Sprintf(startingMessageTemplateConstant, options.OrganizationName, options.TeamIdentifier, options.ApplicationName))
	result := service.Run(command.Context(), options)

	reportTask(session, result.Repositories, repositoriesSuccessTemplateConstant)
	reportTask(session, result.TeamUsers, teamUsersSuccessTemplateConstant)

	session.Banner(completedBannerConstant)
	return nil
}

func reportTask(session *runlog.Session, taskResult TaskResult, successTemplate string) {
	if taskResult.Succeeded() {
		session.Success(fmt.Sprintf(successTemplate, taskResult.OutputPath), zap.Int(logFieldEntriesConstant, taskResult.Entries))
		return
	}
	session.Warning(fmt.Sprintf(taskFailedTemplateConstant, taskResult.OutputPath))
}

func parseOptions(arguments []string) (Options, error) {
	options := Options{
		OrganizationName: strings.TrimSpace(arguments[0]),
		TeamIdentifier:   strings.TrimSpace(arguments[1]),
		ApplicationName:  strings.TrimSpace(arguments[2]),
	}
	if validationError := validator.New().Struct(options); validationError != nil {
		return Options{}, fmt.Errorf(invalidArgumentsTemplateConstant, validationError)
	}
	return options, nil
}

func (builder *CommandBuilder) resolveMetadataClient(configuration CommandConfiguration) (MetadataClient, error) {
	if builder.MetadataClient != nil {
		return builder.MetadataClient, nil
	}
	httpClient := builder.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: configuration.RequestTimeout}
	}
	client, clientError := gitapi.NewClient(configuration.BaseURL, httpClient)
	if clientError != nil {
		return nil, fmt.Errorf(clientCreationErrorTemplateConstant, clientError)
	}
	return client, nil
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration().Sanitize()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveLogDirectory() string {
	if builder.LogDirectoryProvider == nil {
		return ""
	}
	return builder.LogDirectoryProvider()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
