package gitapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-querystring/query"
)

const (
	repositoryListPathConstant    = "repo-list"
	repositoryDetailsPathConstant = "repo-details"
	teamUserListPathConstant      = "sod-user-list"
	acceptHeaderNameConstant      = "Accept"
	acceptHeaderValueConstant     = "application/json"
)

// HTTPClient is the transport used by Client; *http.Client satisfies it.
type HTTPClient interface {
	Do(request *http.Request) (*http.Response, error)
}

type repositoryListQuery struct {
	OrganizationName string `url:"org_name"`
}

type repositoryDetailsQuery struct {
	OrganizationName string `url:"org_name"`
	RepositoryName   string `url:"repo_name"`
}

type teamUserListQuery struct {
	OrganizationName string `url:"org_name"`
	TeamIdentifier   string `url:"team_id"`
}

// Client talks to the internal git metadata service.
type Client struct {
	baseURL    *url.URL
	httpClient HTTPClient
}

// NewClient constructs a Client for the service rooted at baseURL.
func NewClient(baseURL string, httpClient HTTPClient) (*Client, error) {
	trimmedBaseURL := strings.TrimSpace(baseURL)
	if len(trimmedBaseURL) == 0 {
		return nil, ErrBaseURLRequired
	}
	if httpClient == nil {
		return nil, ErrHTTPClientRequired
	}

	parsedBaseURL, parseError := url.Parse(trimmedBaseURL)
	if parseError != nil {
		return nil, parseError
	}

	return &Client{baseURL: parsedBaseURL, httpClient: httpClient}, nil
}

// ListRepositories returns every repository summary of the organization.
func (client *Client) ListRepositories(executionContext context.Context, organizationName string) ([]RepositorySummary, error) {
	body, fetchError := client.get(executionContext, OperationListRepositories, repositoryListPathConstant, repositoryListQuery{OrganizationName: organizationName})
	if fetchError != nil {
		return nil, fetchError
	}

	var summaries []RepositorySummary
	if decodeError := json.Unmarshal(body, &summaries); decodeError != nil {
		return nil, ResponseDecodingError{Operation: OperationListRepositories, Cause: decodeError}
	}
	return summaries, nil
}

// RepositoryDetail returns the custom properties of a single repository.
func (client *Client) RepositoryDetail(executionContext context.Context, organizationName string, repositoryName string) (RepositoryDetail, error) {
	body, fetchError := client.get(executionContext, OperationRepositoryDetail, repositoryDetailsPathConstant, repositoryDetailsQuery{
		OrganizationName: organizationName,
		RepositoryName:   repositoryName,
	})
	if fetchError != nil {
		return RepositoryDetail{}, fetchError
	}

	var payload repositoryDetailPayload
	if decodeError := json.Unmarshal(body, &payload); decodeError != nil {
		return RepositoryDetail{}, ResponseDecodingError{Operation: OperationRepositoryDetail, Cause: decodeError}
	}
	return payload.toDetail()
}

// TeamMembers returns the groups of the team and their members.
func (client *Client) TeamMembers(executionContext context.Context, organizationName string, teamIdentifier string) (TeamUserList, error) {
	body, fetchError := client.get(executionContext, OperationTeamMembers, teamUserListPathConstant, teamUserListQuery{
		OrganizationName: organizationName,
		TeamIdentifier:   teamIdentifier,
	})
	if fetchError != nil {
		return nil, fetchError
	}

	groups, decodeError := decodeTeamUserList(body)
	if decodeError != nil {
		return nil, ResponseDecodingError{Operation: OperationTeamMembers, Cause: decodeError}
	}
	return groups, nil
}

func (client *Client) get(executionContext context.Context, operation OperationName, endpointPath string, parameters any) ([]byte, error) {
	queryValues, encodeError := query.Values(parameters)
	if encodeError != nil {
		return nil, RequestError{Operation: operation, Cause: encodeError}
	}

	endpointURL := client.baseURL.JoinPath(endpointPath)
	endpointURL.RawQuery = queryValues.Encode()

	request, requestError := http.NewRequestWithContext(executionContext, http.MethodGet, endpointURL.String(), nil)
	if requestError != nil {
		return nil, RequestError{Operation: operation, Cause: requestError}
	}
	request.Header.Set(acceptHeaderNameConstant, acceptHeaderValueConstant)

	response, responseError := client.httpClient.Do(request)
	if responseError != nil {
		return nil, RequestError{Operation: operation, Cause: responseError}
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, response.Body)
		return nil, FetchError{Operation: operation, URL: endpointURL.String(), StatusCode: response.StatusCode}
	}

	body, readError := io.ReadAll(response.Body)
	if readError != nil {
		return nil, RequestError{Operation: operation, Cause: readError}
	}
	return body, nil
}
