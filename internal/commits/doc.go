// Package commits retrieves per-user commit history of a repository from the
// GitHub REST API and converts it into report records.
//
// GitHubSource performs the calls. PacedSource spaces successive calls within a
// repository and CachingSource memoizes answers for repeated repository entries.
package commits
