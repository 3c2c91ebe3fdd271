// Package outputs owns the flat files shared by the discovery and audit runs:
// line-oriented text files such as repos.txt and team_users.txt, repository
// URL parsing for their entries, and the lock that keeps two runs from using
// them at once.
package outputs
