// Package gitapi is a typed client for the internal git metadata service that
// lists organization repositories, exposes their custom properties and resolves
// segregation-of-duties team membership.
//
// Responses are decoded into explicit records; absent fields surface as
// MissingFieldError and non-200 answers as FetchError.
package gitapi
