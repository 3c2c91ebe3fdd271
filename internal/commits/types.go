package commits

import (
	"context"
	"time"
)

// Window bounds the commit dates of interest.
type Window struct {
	Since time.Time
	Until time.Time
}

// RepositoryContext identifies the repository and window a fetch applies to.
type RepositoryContext struct {
	Organization string
	Repository   string
	Window       Window
}

// Record is a single commit authored by a user in a repository.
type Record struct {
	OrganizationName string
	RepositoryName   string
	User             string
	SHA              string
	Date             string
	Message          string
}

// Source fetches the commits a user authored in a repository within a window.
// An empty result means the user did not commit in the window.
type Source interface {
	FetchCommits(executionContext context.Context, repository RepositoryContext, user string) ([]Record, error)
}
