package discovery

import (
	"path/filepath"
	"strings"
	"time"

	pathutils "github.com/temirov/repoaudit/internal/utils/path"
)

const (
	defaultBaseURLConstant             = "http://10.100.6.201:8000/api/git"
	defaultOutputDirectoryConstant     = "."
	defaultRepositoryListFileConstant  = "repos.txt"
	defaultTeamUsersFileConstant       = "team_users.txt"
	defaultRequestTimeoutConstant      = 30 * time.Second
	baseURLConfigurationKey            = "base_url"
	outputDirectoryConfigurationKey    = "output_directory"
	repositoryListFileConfigurationKey = "repository_list_file"
	teamUsersFileConfigurationKey      = "team_users_file"
	concurrencyConfigurationKey        = "concurrency"
	requestTimeoutConfigurationKey     = "request_timeout"
	configurationKeySeparator          = "."
)

var discoveryDirectoryResolver = pathutils.NewDirectoryResolver()

// CommandConfiguration captures persistent settings for the discover command.
type CommandConfiguration struct {
	BaseURL            string        `mapstructure:"base_url"`
	OutputDirectory    string        `mapstructure:"output_directory"`
	RepositoryListFile string        `mapstructure:"repository_list_file"`
	TeamUsersFile      string        `mapstructure:"team_users_file"`
	Concurrency        int           `mapstructure:"concurrency"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
}

// DefaultCommandConfiguration returns baseline values for the discover command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		BaseURL:            defaultBaseURLConstant,
		OutputDirectory:    defaultOutputDirectoryConstant,
		RepositoryListFile: defaultRepositoryListFileConstant,
		TeamUsersFile:      defaultTeamUsersFileConstant,
		Concurrency:        0,
		RequestTimeout:     defaultRequestTimeoutConstant,
	}
}

// DefaultConfigurationValues exposes the defaults keyed under configurationPrefix for the loader.
func DefaultConfigurationValues(configurationPrefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		configurationPrefix + configurationKeySeparator + baseURLConfigurationKey:            defaults.BaseURL,
		configurationPrefix + configurationKeySeparator + outputDirectoryConfigurationKey:    defaults.OutputDirectory,
		configurationPrefix + configurationKeySeparator + repositoryListFileConfigurationKey: defaults.RepositoryListFile,
		configurationPrefix + configurationKeySeparator + teamUsersFileConfigurationKey:      defaults.TeamUsersFile,
		configurationPrefix + configurationKeySeparator + concurrencyConfigurationKey:        defaults.Concurrency,
		configurationPrefix + configurationKeySeparator + requestTimeoutConfigurationKey:     defaults.RequestTimeout.String(),
	}
}

// Sanitize trims values and restores defaults for blank or invalid entries.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	defaults := DefaultCommandConfiguration()
	sanitized := configuration

	sanitized.BaseURL = strings.TrimSpace(configuration.BaseURL)
	if len(sanitized.BaseURL) == 0 {
		sanitized.BaseURL = defaults.BaseURL
	}
	sanitized.OutputDirectory = discoveryDirectoryResolver.Resolve(configuration.OutputDirectory, defaults.OutputDirectory)
	sanitized.RepositoryListFile = selectFileName(configuration.RepositoryListFile, defaults.RepositoryListFile)
	sanitized.TeamUsersFile = selectFileName(configuration.TeamUsersFile, defaults.TeamUsersFile)
	if sanitized.Concurrency < 0 {
		sanitized.Concurrency = defaults.Concurrency
	}
	if sanitized.RequestTimeout <= 0 {
		sanitized.RequestTimeout = defaults.RequestTimeout
	}
	return sanitized
}

// RepositoryListPath returns the location of repos.txt.
func (configuration CommandConfiguration) RepositoryListPath() string {
	return filepath.Join(configuration.OutputDirectory, configuration.RepositoryListFile)
}

// TeamUsersPath returns the location of team_users.txt.
func (configuration CommandConfiguration) TeamUsersPath() string {
	return filepath.Join(configuration.OutputDirectory, configuration.TeamUsersFile)
}

func selectFileName(candidate string, fallback string) string {
	trimmed := strings.TrimSpace(candidate)
	if len(trimmed) == 0 {
		return fallback
	}
	return trimmed
}
