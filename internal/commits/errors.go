package commits

import (
	"fmt"
)

const (
	fetchErrorTemplateConstant        = "commits of %s in %s/%s returned HTTP %d: %v"
	requestErrorTemplateConstant      = "commits of %s in %s/%s could not be requested: %v"
	missingFieldErrorTemplateConstant = "%s is missing required field %q"
)

// FetchError reports a non-success answer from the commit history API.
type FetchError struct {
	Owner      string
	Repository string
	User       string
	StatusCode int
	Cause      error
}

// Error describes the failed request.
func (fetchError FetchError) Error() string {
	return fmt.Sprintf(fetchErrorTemplateConstant, fetchError.User, fetchError.Owner, fetchError.Repository, fetchError.StatusCode, fetchError.Cause)
}

// Unwrap exposes the API error.
func (fetchError FetchError) Unwrap() error {
	return fetchError.Cause
}

// RequestError wraps failures raised before the API answered.
type RequestError struct {
	Owner      string
	Repository string
	User       string
	Cause      error
}

// Error describes the transport failure.
func (requestError RequestError) Error() string {
	return fmt.Sprintf(requestErrorTemplateConstant, requestError.User, requestError.Owner, requestError.Repository, requestError.Cause)
}

// Unwrap exposes the transport error.
func (requestError RequestError) Unwrap() error {
	return requestError.Cause
}

// MissingFieldError reports a commit lacking a field the report requires.
type MissingFieldError struct {
	Entity string
	Field  string
}

// Error describes the missing field.
func (missingFieldError MissingFieldError) Error() string {
	return fmt.Sprintf(missingFieldErrorTemplateConstant, missingFieldError.Entity, missingFieldError.Field)
}
