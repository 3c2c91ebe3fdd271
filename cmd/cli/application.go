package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/repoaudit/internal/audit"
	"github.com/temirov/repoaudit/internal/discovery"
	"github.com/temirov/repoaudit/internal/utils"
	flagutils "github.com/temirov/repoaudit/internal/utils/flags"
	pathutils "github.com/temirov/repoaudit/internal/utils/path"
)

const (
	applicationNameConstant                 = "repoaudit"
	applicationShortDescriptionConstant     = "Compliance audit tooling for GitHub organizations"
	applicationLongDescriptionConstant      = "repoaudit discovers the repositories of an organization flagged for audit under an application, lists the members of a team, and reports the commits those members authored during an audit window."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	commonLogDirectoryConfigKeyConstant     = commonConfigurationKeyConstant + ".log_directory"
	commonEnvironmentFileConfigKeyConstant  = commonConfigurationKeyConstant + ".env_file"
	defaultLogDirectoryConstant             = "logs"
	defaultEnvironmentFileConstant          = ".env"
	environmentPrefixConstant               = "REPOAUDIT"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	environmentFileFieldConstant            = "env_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	environmentLoadErrorTemplateConstant    = "unable to load environment: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	commandBuildErrorTemplateConstant       = "unable to build %s command: %w"
	defaultConfigurationSearchPathConstant  = "."
	toolsConfigurationKeyConstant           = "tools"
	discoveryConfigurationKeyConstant       = toolsConfigurationKeyConstant + ".discovery"
	auditConfigurationKeyConstant           = toolsConfigurationKeyConstant + ".audit"
	discoveryCommandLabelConstant           = "discover"
	auditCommandLabelConstant               = "commits"
)

var (
	logLevelChoices = []string{
		string(utils.LogLevelDebug),
		string(utils.LogLevelInfo),
		string(utils.LogLevelWarn),
		string(utils.LogLevelError),
	}
	logFormatChoices = []string{
		string(utils.LogFormatStructured),
		string(utils.LogFormatConsole),
	}
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Tools  ApplicationToolsConfiguration  `mapstructure:"tools"`
}

// ApplicationCommonConfiguration stores settings shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel        string `mapstructure:"log_level"`
	LogFormat       string `mapstructure:"log_format"`
	LogDirectory    string `mapstructure:"log_directory"`
	EnvironmentFile string `mapstructure:"env_file"`
}

// ApplicationToolsConfiguration holds configuration for the pipelines.
type ApplicationToolsConfiguration struct {
	Discovery discovery.CommandConfiguration `mapstructure:"discovery"`
	Audit     audit.CommandConfiguration     `mapstructure:"audit"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand           *cobra.Command
	configurationLoader   *utils.ConfigurationLoader
	environmentLoader     *utils.EnvironmentFileLoader
	loggerFactory         *utils.LoggerFactory
	directoryResolver     *pathutils.DirectoryResolver
	logger                *zap.Logger
	configuration         ApplicationConfiguration
	configurationMetadata utils.LoadedConfiguration
	configurationFilePath string
	logLevelFlagValue     string
	logFormatFlagValue    string
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() (*Application, error) {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant},
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader: configurationLoader,
		environmentLoader:   utils.NewEnvironmentFileLoader(),
		loggerFactory:       utils.NewLoggerFactory(),
		directoryResolver:   pathutils.NewDirectoryResolver(),
		logger:              zap.NewNop(),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}

	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().Var(
		flagutils.NewChoiceValue(&application.logLevelFlagValue, logLevelChoices),
		logLevelFlagNameConstant,
		flagutils.FormatChoiceUsage(string(utils.LogLevelInfo), logLevelChoices, logLevelFlagUsageConstant),
	)
	cobraCommand.PersistentFlags().Var(
		flagutils.NewChoiceValue(&application.logFormatFlagValue, logFormatChoices),
		logFormatFlagNameConstant,
		flagutils.FormatChoiceUsage(string(utils.LogFormatStructured), logFormatChoices, logFormatFlagUsageConstant),
	)

	discoveryBuilder := discovery.CommandBuilder{
		LoggerProvider: application.diagnosticLogger,
		ConfigurationProvider: func() discovery.CommandConfiguration {
			return application.configuration.Tools.Discovery
		},
		LogDirectoryProvider: application.logDirectory,
	}
	discoveryCommand, discoveryBuildError := discoveryBuilder.Build()
	if discoveryBuildError != nil {
		return nil, fmt.Errorf(commandBuildErrorTemplateConstant, discoveryCommandLabelConstant, discoveryBuildError)
	}
	cobraCommand.AddCommand(discoveryCommand)

	auditBuilder := audit.CommandBuilder{
		LoggerProvider: application.diagnosticLogger,
		ConfigurationProvider: func() audit.CommandConfiguration {
			return application.configuration.Tools.Audit
		},
		LogDirectoryProvider: application.logDirectory,
	}
	auditCommand, auditBuildError := auditBuilder.Build()
	if auditBuildError != nil {
		return nil, fmt.Errorf(commandBuildErrorTemplateConstant, auditCommandLabelConstant, auditBuildError)
	}
	cobraCommand.AddCommand(auditCommand)

	application.rootCommand = cobraCommand

	return application, nil
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
// An interrupt or termination signal cancels in-flight requests.
func (application *Application) Execute() error {
	signalContext, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	executionError := application.rootCommand.ExecuteContext(signalContext)
	if syncError := application.flushLogger(); syncError != nil {
		return errors.Join(executionError, fmt.Errorf(loggerSyncErrorTemplateConstant, syncError))
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	application, applicationError := NewApplication()
	if applicationError != nil {
		return applicationError
	}
	return application.Execute()
}

// initializeConfiguration loads configuration, applies the dotenv file it names and
// reloads so REPOAUDIT_ values from that file take effect, then builds the logger.
func (application *Application) initializeConfiguration(command *cobra.Command) error {
	if loadError := application.loadConfiguration(); loadError != nil {
		return loadError
	}

	environmentApplied, environmentError := application.environmentLoader.Load(application.configuration.Common.EnvironmentFile)
	if environmentError != nil {
		return fmt.Errorf(environmentLoadErrorTemplateConstant, environmentError)
	}
	if environmentApplied {
		if reloadError := application.loadConfiguration(); reloadError != nil {
			return reloadError
		}
	}

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	logger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(strings.TrimSpace(application.configuration.Common.LogLevel)),
		utils.LogFormat(strings.TrimSpace(application.configuration.Common.LogFormat)),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = logger

	application.logger.Info(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
		zap.Bool(environmentFileFieldConstant, environmentApplied),
	)

	return nil
}

func (application *Application) loadConfiguration() error {
	application.configuration = ApplicationConfiguration{}
	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(
		application.configurationFilePath,
		defaultConfigurationValues(),
		&application.configuration,
	)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}
	application.configurationMetadata = loadedConfiguration
	return nil
}

func defaultConfigurationValues() map[string]any {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:        string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant:       string(utils.LogFormatStructured),
		commonLogDirectoryConfigKeyConstant:    defaultLogDirectoryConstant,
		commonEnvironmentFileConfigKeyConstant: defaultEnvironmentFileConstant,
	}
	for configurationKey, configurationValue := range discovery.DefaultConfigurationValues(discoveryConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}
	for configurationKey, configurationValue := range audit.DefaultConfigurationValues(auditConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}
	return defaultValues
}

func (application *Application) diagnosticLogger() *zap.Logger {
	return application.logger
}

// logDirectory returns the resolved run log directory; a blank setting disables log files.
func (application *Application) logDirectory() string {
	configuredDirectory := strings.TrimSpace(application.configuration.Common.LogDirectory)
	if len(configuredDirectory) == 0 {
		return ""
	}
	return application.directoryResolver.Resolve(configuredDirectory, defaultLogDirectoryConstant)
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
