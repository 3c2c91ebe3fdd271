package commits

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v74/github"
	"golang.org/x/oauth2"
)

const (
	acceptHeaderNameConstant      = "Accept"
	acceptHeaderValueConstant     = "application/vnd.github+json"
	apiVersionHeaderNameConstant  = "X-GitHub-Api-Version"
	apiVersionHeaderValueConstant = "2022-11-28"
	commitEntityConstant          = "commit"
	shaFieldConstant              = "sha"
	authorDateFieldConstant       = "commit.author.date"
	tokenRequiredMessageConstant  = "github token must be provided"
	baseURLPathSeparatorConstant  = "/"
	tokenTypeBearerConstant       = "Bearer"
)

// ErrTokenRequired indicates the source was constructed without credentials.
var ErrTokenRequired = errors.New(tokenRequiredMessageConstant)

// GitHubOptions configures a GitHubSource.
type GitHubOptions struct {
	Token string
	// BaseURL overrides the public API root, e.g. for GitHub Enterprise.
	BaseURL string
	// Transport carries requests; http.DefaultTransport when nil.
	Transport http.RoundTripper
	// Timeout bounds each request; zero means no limit.
	Timeout time.Duration
}

// GitHubSource lists commits through the GitHub REST API.
type GitHubSource struct {
	client *github.Client
}

// NewGitHubSource builds a bearer-authenticated GitHub client.
func NewGitHubSource(options GitHubOptions) (*GitHubSource, error) {
	token := strings.TrimSpace(options.Token)
	if len(token) == 0 {
		return nil, ErrTokenRequired
	}

	baseTransport := options.Transport
	if baseTransport == nil {
		baseTransport = http.DefaultTransport
	}

	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: tokenTypeBearerConstant}),
			Base:   apiHeaderTransport{base: baseTransport},
		},
		Timeout: options.Timeout,
	}

	client := github.NewClient(httpClient)
	if baseURL := strings.TrimSpace(options.BaseURL); len(baseURL) > 0 {
		if !strings.HasSuffix(baseURL, baseURLPathSeparatorConstant) {
			baseURL += baseURLPathSeparatorConstant
		}
		parsedBaseURL, parseError := url.Parse(baseURL)
		if parseError != nil {
			return nil, parseError
		}
		client.BaseURL = parsedBaseURL
	}

	return &GitHubSource{client: client}, nil
}

// FetchCommits requests the first page of commits authored by user within the window.
func (source *GitHubSource) FetchCommits(executionContext context.Context, repository RepositoryContext, user string) ([]Record, error) {
	listOptions := &github.CommitsListOptions{
		Author: user,
		Since:  repository.Window.Since,
		Until:  repository.Window.Until,
	}

	repositoryCommits, response, listError := source.client.Repositories.ListCommits(executionContext, repository.Organization, repository.Repository, listOptions)
	if listError != nil {
		if response != nil && response.Response != nil {
			return nil, FetchError{
				Owner:      repository.Organization,
				Repository: repository.Repository,
				User:       user,
				StatusCode: response.StatusCode,
				Cause:      listError,
			}
		}
		return nil, RequestError{Owner: repository.Organization, Repository: repository.Repository, User: user, Cause: listError}
	}

	records := make([]Record, 0, len(repositoryCommits))
	for _, repositoryCommit := range repositoryCommits {
		record, conversionError := toRecord(repository, user, repositoryCommit)
		if conversionError != nil {
			return nil, conversionError
		}
		records = append(records, record)
	}
	return records, nil
}

func toRecord(repository RepositoryContext, user string, repositoryCommit *github.RepositoryCommit) (Record, error) {
	sha := repositoryCommit.GetSHA()
	if len(sha) == 0 {
		return Record{}, MissingFieldError{Entity: commitEntityConstant, Field: shaFieldConstant}
	}

	authorDate := repositoryCommit.GetCommit().GetAuthor().Date
	if authorDate == nil || authorDate.IsZero() {
		return Record{}, MissingFieldError{Entity: commitEntityConstant, Field: authorDateFieldConstant}
	}

	return Record{
		OrganizationName: repository.Organization,
		RepositoryName:   repository.Repository,
		User:             user,
		SHA:              sha,
		Date:             authorDate.UTC().Format(time.RFC3339),
		Message:          repositoryCommit.GetCommit().GetMessage(),
	}, nil
}

type apiHeaderTransport struct {
	base http.RoundTripper
}

func (transport apiHeaderTransport) RoundTrip(request *http.Request) (*http.Response, error) {
	clonedRequest := request.Clone(request.Context())
	clonedRequest.Header.Set(acceptHeaderNameConstant, acceptHeaderValueConstant)
	clonedRequest.Header.Set(apiVersionHeaderNameConstant, apiVersionHeaderValueConstant)
	return transport.base.RoundTrip(clonedRequest)
}
