package audit

import (
	"path/filepath"
	"strings"
	"time"

	pathutils "github.com/temirov/repoaudit/internal/utils/path"
)

const (
	defaultGitHubBaseURLConstant       = "https://api.github.com/"
	defaultRepositoryListPathConstant  = "repos.txt"
	defaultReportDirectoryConstant     = "audits"
	defaultRequestDelayConstant        = time.Second
	defaultRequestTimeoutConstant      = 30 * time.Second
	defaultCacheSizeConstant           = 256
	githubBaseURLConfigurationKey      = "github_base_url"
	repositoryListPathConfigurationKey = "repository_list_path"
	reportDirectoryConfigurationKey    = "report_directory"
	requestDelayConfigurationKey       = "request_delay"
	requestTimeoutConfigurationKey     = "request_timeout"
	cacheSizeConfigurationKey          = "cache_size"
	configurationKeySeparator          = "."
)

var auditDirectoryResolver = pathutils.NewDirectoryResolver()

// CommandConfiguration captures persistent settings for the commits command.
type CommandConfiguration struct {
	GitHubBaseURL      string        `mapstructure:"github_base_url"`
	RepositoryListPath string        `mapstructure:"repository_list_path"`
	ReportDirectory    string        `mapstructure:"report_directory"`
	RequestDelay       time.Duration `mapstructure:"request_delay"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	CacheSize          int           `mapstructure:"cache_size"`
}

// DefaultCommandConfiguration returns baseline values for the commits command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		GitHubBaseURL:      defaultGitHubBaseURLConstant,
		RepositoryListPath: defaultRepositoryListPathConstant,
		ReportDirectory:    defaultReportDirectoryConstant,
		RequestDelay:       defaultRequestDelayConstant,
		RequestTimeout:     defaultRequestTimeoutConstant,
		CacheSize:          defaultCacheSizeConstant,
	}
}

// DefaultConfigurationValues exposes the defaults keyed under configurationPrefix for the loader.
func DefaultConfigurationValues(configurationPrefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		configurationPrefix + configurationKeySeparator + githubBaseURLConfigurationKey:      defaults.GitHubBaseURL,
		configurationPrefix + configurationKeySeparator + repositoryListPathConfigurationKey: defaults.RepositoryListPath,
		configurationPrefix + configurationKeySeparator + reportDirectoryConfigurationKey:    defaults.ReportDirectory,
		configurationPrefix + configurationKeySeparator + requestDelayConfigurationKey:       defaults.RequestDelay.String(),
		configurationPrefix + configurationKeySeparator + requestTimeoutConfigurationKey:     defaults.RequestTimeout.String(),
		configurationPrefix + configurationKeySeparator + cacheSizeConfigurationKey:          defaults.CacheSize,
	}
}

// Sanitize trims values and restores defaults for blank or invalid entries.
// A zero request delay disables pacing and a zero cache size disables caching.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	defaults := DefaultCommandConfiguration()
	sanitized := configuration

	sanitized.GitHubBaseURL = strings.TrimSpace(configuration.GitHubBaseURL)
	if len(sanitized.GitHubBaseURL) == 0 {
		sanitized.GitHubBaseURL = defaults.GitHubBaseURL
	}
	repositoryListPath := strings.TrimSpace(configuration.RepositoryListPath)
	if len(repositoryListPath) == 0 {
		repositoryListPath = defaults.RepositoryListPath
	}
	sanitized.RepositoryListPath = filepath.Join(
		auditDirectoryResolver.Resolve(filepath.Dir(repositoryListPath), ""),
		filepath.Base(repositoryListPath),
	)
	sanitized.ReportDirectory = auditDirectoryResolver.Resolve(configuration.ReportDirectory, defaults.ReportDirectory)
	if sanitized.RequestDelay < 0 {
		sanitized.RequestDelay = defaults.RequestDelay
	}
	if sanitized.RequestTimeout <= 0 {
		sanitized.RequestTimeout = defaults.RequestTimeout
	}
	if sanitized.CacheSize < 0 {
		sanitized.CacheSize = 0
	}
	return sanitized
}
