package audit

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/repoaudit/internal/commits"
	"github.com/temirov/repoaudit/internal/githubauth"
	"github.com/temirov/repoaudit/internal/outputs"
	"github.com/temirov/repoaudit/internal/runlog"
)

const (
	commandUseConstant                 = "commits USERNAMES MONTH_START MONTH_END TEAM_NAME IS_PERIOD PERIOD APPLICATION_NAME"
	commandShortDescriptionConstant    = "Generate the commit audit report of a team"
	commandLongDescriptionConstant     = "commits fetches the commits every user in USERNAMES authored in each repository listed in repos.txt during the audit window and writes a CSV report under the report directory. With IS_PERIOD set to 1 the window covers the PERIOD months preceding MONTH_START; otherwise it spans MONTH_START through MONTH_END."
	requiredArgumentCountConstant      = 7
	runLogCategoryConstant             = "github-api"
	runBannerConstant                  = "RUNNING commits"
	completedBannerTemplateConstant    = "COMPLETED commits for %s"
	missingArgumentsMessageConstant    = "program argument not provided expected seven arguments 1st USERNAMES 2nd MONTH_START 3rd MONTH_END 4th TEAM_NAME 5th IS_PERIOD 6th PERIOD 7th APPLICATION_NAME"
	runLogOpenErrorTemplateConstant    = "unable to open run log: %w"
	runLockMessageConstant             = "unable to lock the repository list directory"
	tokenErrorTemplateConstant         = "github token is not configured: %w"
	repositoryListMessageTemplate      = "unable to read %s"
	sourceCreationMessageConstant      = "unable to create the commit history client"
	reportWriteMessageConstant         = "unable to write the audit report"
	startingMessageTemplateConstant    = "Starting audit for %s from %s to %s"
	repositoriesLoadedTemplateConstant = "%d repositories and %d users to audit"
	reportWrittenTemplateConstant      = "Audit report generated for %s from %s to %s in %s"
	logFieldRowsConstant               = "rows"
	logFieldPathConstant               = "path"
)

// ErrMissingArguments indicates fewer than seven positional arguments were supplied.
var ErrMissingArguments = errors.New(missingArgumentsMessageConstant)

// LoggerProvider supplies the diagnostic zap logger.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current commits configuration.
type ConfigurationProvider func() CommandConfiguration

// LogDirectoryProvider returns the directory hosting run log files; blank disables them.
type LogDirectoryProvider func() string

// CommandBuilder assembles the commits cobra command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	LogDirectoryProvider  LogDirectoryProvider
	TokenResolver         TokenResolver
	CommitSource          commits.Source
	Transport             http.RoundTripper
	Clock                 runlog.Clock
}

// Build constructs the commits command.
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
	options, optionsError := ParseCommandOptions(arguments)
	if optionsError != nil {
		session.Abort(optionsError.Error(), optionsError)
		return optionsError
	}

	window, windowError := ResolveWindow(options.MonthStart, options.MonthEnd, options.PeriodMode, options.Period)
	if windowError != nil {
		session.Abort(windowError.Error(), windowError)
		return windowError
	}

	source, sourceError := builder.resolveCommitSource(configuration)
	if sourceError != nil {
		session.Abort(sourceCreationMessageConstant, sourceError)
		return sourceError
	}

	runLock, lockError := outputs.AcquireRunLock(filepath.Dir(configuration.RepositoryListPath))
	if lockError != nil {
		session.Abort(runLockMessageConstant, lockError)
		return lockError
	}
	defer func() {
		runError = errors.Join(runError, runLock.Release())
	}()

	repositoryEntries, readError := outputs.ReadLines(configuration.RepositoryListPath)
	if readError != nil {
		session.Abort(fmt.Sprintf(repositoryListMessageTemplate, configuration.RepositoryListPath), readError)
		return readError
	}

	service, serviceError := NewService(source, session)
	if serviceError != nil {
		return serviceError
	}

	session.Info(fmt.Sprintf(startingMessageTemplateConstant, options.TeamName, window.StartLabel(), window.EndLabel()))
	session.Info(fmt.Sprintf(repositoriesLoadedTemplateConstant, len(repositoryEntries), len(options.Usernames)))
	table, collectError := service.Collect(command.Context(), repositoryEntries, options.Usernames, window)
	if collectError != nil {
		session.Abort(collectError.Error(), collectError)
		return collectError
	}

	metadata := ReportMetadata{
		TeamName:        options.TeamName,
		ApplicationName: options.ApplicationName,
		PeriodStart:     window.StartLabel(),
		PeriodEnd:       window.EndLabel(),
	}
	reportPath, reportError := WriteReportFile(configuration.ReportDirectory, metadata, table)
	if reportError != nil {
		session.Abort(reportWriteMessageConstant, reportError)
		return reportError
	}

	session.Success(
		fmt.Sprintf(reportWrittenTemplateConstant, options.TeamName, metadata.PeriodStart, metadata.PeriodEnd, reportPath),
		zap.Int(logFieldRowsConstant, table.Len()),
		zap.String(logFieldPathConstant, reportPath),
	)
	session.Banner(fmt.Sprintf(completedBannerTemplateConstant, options.TeamName))
	return nil
}

// resolveCommitSource layers caching over pacing over the GitHub client so cache hits skip the delay.
func (builder *CommandBuilder) resolveCommitSource(configuration CommandConfiguration) (commits.Source, error) {
	baseSource := builder.CommitSource
	if baseSource == nil {
		token, tokenError := builder.resolveToken()
		if tokenError != nil {
			return nil, fmt.Errorf(tokenErrorTemplateConstant, tokenError)
		}
		githubSource, githubError := commits.NewGitHubSource(commits.GitHubOptions{
			Token:     token,
			BaseURL:   configuration.GitHubBaseURL,
			Transport: builder.Transport,
			Timeout:   configuration.RequestTimeout,
		})
		if githubError != nil {
			return nil, githubError
		}
		baseSource = githubSource
	}

	pacedSource := commits.NewPacedSource(baseSource, commits.NewPacer(configuration.RequestDelay))
	return commits.NewCachingSource(pacedSource, configuration.CacheSize)
}

func (builder *CommandBuilder) resolveToken() (string, error) {
	if builder.TokenResolver == nil {
		return githubauth.ResolveToken()
	}
	return builder.TokenResolver()
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
