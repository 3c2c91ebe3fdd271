// Package discovery implements the discover command. It lists the repositories of
// an organization, keeps those flagged for audit under the requested application,
// resolves the members of a segregation-of-duties team, and writes both results to
// line files consumed by the commits command.
package discovery
