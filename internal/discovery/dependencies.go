package discovery

import (
	"context"

	"go.uber.org/zap"

	"github.com/temirov/repoaudit/internal/gitapi"
)

// MetadataClient exposes the internal git metadata endpoints used by discovery.
type MetadataClient interface {
	ListRepositories(executionContext context.Context, organizationName string) ([]gitapi.RepositorySummary, error)
	RepositoryDetail(executionContext context.Context, organizationName string, repositoryName string) (gitapi.RepositoryDetail, error)
	TeamMembers(executionContext context.Context, organizationName string, teamIdentifier string) (gitapi.TeamUserList, error)
}

// RunLogger reports progress to the console and the run log files.
type RunLogger interface {
	Info(message string, fields ...zap.Field)
	Success(message string, fields ...zap.Field)
	Warning(message string, fields ...zap.Field)
	Failure(message string, cause error, fields ...zap.Field)
}
