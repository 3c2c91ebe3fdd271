package githubauth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Environment variable names consulted for the GitHub token, in preference order.
const (
	EnvGitHubPersonalAccessToken = "GH_PAT"
	EnvGitHubCLIToken            = "GH_TOKEN"
	EnvGitHubToken               = "GITHUB_TOKEN"
)

const (
	tokenMissingMessageConstant          = "github token not found in " + EnvGitHubPersonalAccessToken + ", " + EnvGitHubCLIToken + " or " + EnvGitHubToken
	credentialsLoadErrorTemplateConstant = "unable to read github credentials: %w"
)

// ErrTokenMissing indicates none of the token variables holds a value.
var ErrTokenMissing = errors.New(tokenMissingMessageConstant)

// Credentials mirrors the token variables of the process environment.
type Credentials struct {
	PersonalAccessToken string `envconfig:"GH_PAT"`
	CLIToken            string `envconfig:"GH_TOKEN"`
	Token               string `envconfig:"GITHUB_TOKEN"`
}

// LoadCredentials reads the token variables from the process environment.
func LoadCredentials() (Credentials, error) {
	var credentials Credentials
	if processError := envconfig.Process("", &credentials); processError != nil {
		return Credentials{}, fmt.Errorf(credentialsLoadErrorTemplateConstant, processError)
	}
	return credentials, nil
}

// PreferredToken returns the first non-blank token in preference order.
func (credentials Credentials) PreferredToken() (string, bool) {
	for _, candidate := range []string{credentials.PersonalAccessToken, credentials.CLIToken, credentials.Token} {
		trimmed := strings.TrimSpace(candidate)
		if len(trimmed) > 0 {
			return trimmed, true
		}
	}
	return "", false
}

// ResolveToken loads the credentials and returns the preferred token or ErrTokenMissing.
func ResolveToken() (string, error) {
	credentials, loadError := LoadCredentials()
	if loadError != nil {
		return "", loadError
	}
	token, found := credentials.PreferredToken()
	if !found {
		return "", ErrTokenMissing
	}
	return token, nil
}
