package outputs

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	schemeDelimiterConstant        = "://"
	scpUserDelimiterConstant       = "@"
	scpPathDelimiterConstant       = ":"
	pathSeparatorConstant          = "/"
	gitSuffixConstant              = ".git"
	repositoryURLErrorTemplate     = "%q is not a repository url: %s"
	emptyRepositoryURLMessage      = "value is empty"
	missingPathSegmentsMessage     = "expected an organization and a repository path segment"
	unsupportedRepositoryURLFormat = "unsupported url format"
)

// RepositoryCoordinates names a repository by organization and repository name.
type RepositoryCoordinates struct {
	Organization string
	Repository   string
}

// RepositoryURLError indicates a repos.txt entry could not be interpreted.
type RepositoryURLError struct {
	Input   string
	Message string
}

// Error describes the parse failure.
func (urlError RepositoryURLError) Error() string {
	return fmt.Sprintf(repositoryURLErrorTemplate, urlError.Input, urlError.Message)
}

// ParseRepositoryURL extracts the organization and repository from an entry such as
// https://github.com/acme/billing.git or git@github.com:acme/billing.git. The organization
// is the second-to-last path segment and the repository the last one, without .git.
func ParseRepositoryURL(rawURL string) (RepositoryCoordinates, error) {
	trimmedURL := strings.TrimSpace(rawURL)
	if len(trimmedURL) == 0 {
		return RepositoryCoordinates{}, RepositoryURLError{Input: rawURL, Message: emptyRepositoryURLMessage}
	}

	repositoryPath, pathError := extractRepositoryPath(trimmedURL)
	if pathError != nil {
		return RepositoryCoordinates{}, pathError
	}

	segments := nonEmptySegments(strings.TrimSuffix(strings.TrimRight(repositoryPath, pathSeparatorConstant), gitSuffixConstant))
	if len(segments) < 2 {
		return RepositoryCoordinates{}, RepositoryURLError{Input: rawURL, Message: missingPathSegmentsMessage}
	}

	return RepositoryCoordinates{
		Organization: segments[len(segments)-2],
		Repository:   segments[len(segments)-1],
	}, nil
}

func extractRepositoryPath(trimmedURL string) (string, error) {
	if strings.Contains(trimmedURL, schemeDelimiterConstant) {
		parsedURL, parseError := url.Parse(trimmedURL)
		if parseError != nil || len(parsedURL.Host) == 0 {
			return "", RepositoryURLError{Input: trimmedURL, Message: unsupportedRepositoryURLFormat}
		}
		return parsedURL.Path, nil
	}

	// scp-like form: user@host:organization/repository
	userIndex := strings.Index(trimmedURL, scpUserDelimiterConstant)
	pathIndex := strings.Index(trimmedURL, scpPathDelimiterConstant)
	if userIndex == -1 || pathIndex == -1 || pathIndex < userIndex {
		return "", RepositoryURLError{Input: trimmedURL, Message: unsupportedRepositoryURLFormat}
	}
	return trimmedURL[pathIndex+1:], nil
}

func nonEmptySegments(path string) []string {
	var segments []string
	for _, segment := range strings.Split(path, pathSeparatorConstant) {
		if len(segment) > 0 {
			segments = append(segments, segment)
		}
	}
	return segments
}

// RepositoryURL renders the repos.txt entry of a repository web URL.
func RepositoryURL(htmlURL string) string {
	return strings.TrimSpace(htmlURL) + gitSuffixConstant
}
