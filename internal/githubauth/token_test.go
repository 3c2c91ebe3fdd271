package githubauth_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/repoaudit/internal/githubauth"
)

func TestResolveTokenPreference(testInstance *testing.T) {
	testCases := []struct {
		name          string
		environment   map[string]string
		expectedToken string
		expectMissing bool
	}{
		{
			name:          "personal access token wins",
			environment:   map[string]string{githubauth.EnvGitHubPersonalAccessToken: "pat", githubauth.EnvGitHubCLIToken: "cli", githubauth.EnvGitHubToken: "gh"},
			expectedToken: "pat",
		},
		{
			name:          "cli token fallback",
			environment:   map[string]string{githubauth.EnvGitHubPersonalAccessToken: "  ", githubauth.EnvGitHubCLIToken: " cli ", githubauth.EnvGitHubToken: "gh"},
			expectedToken: "cli",
		},
		{
			name:          "github token fallback",
			environment:   map[string]string{githubauth.EnvGitHubToken: "gh"},
			expectedToken: "gh",
		},
		{
			name:          "nothing configured",
			environment:   map[string]string{},
			expectMissing: true,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subTest *testing.T) {
			for _, variableName := range []string{githubauth.EnvGitHubPersonalAccessToken, githubauth.EnvGitHubCLIToken, githubauth.EnvGitHubToken} {
				subTest.Setenv(variableName, testCase.environment[variableName])
			}

			token, resolveError := githubauth.ResolveToken()
			if testCase.expectMissing {
				require.ErrorIs(subTest, resolveError, githubauth.ErrTokenMissing)
				return
			}
			require.NoError(subTest, resolveError)
			require.Equal(subTest, testCase.expectedToken, token)
		})
	}
}
