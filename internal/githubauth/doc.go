// Package githubauth locates the GitHub personal access token used for commit history requests.
package githubauth
