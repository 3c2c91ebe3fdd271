package gitapi

import (
	"errors"
	"fmt"
)

const (
	fetchErrorTemplateConstant            = "%s request to %s returned HTTP %d"
	requestErrorTemplateConstant          = "%s request failed: %v"
	responseDecodingErrorTemplateConstant = "%s response decoding failed: %v"
	missingFieldErrorTemplateConstant     = "%s is missing required field %q"
	baseURLRequiredMessageConstant        = "git api base url must be provided"
	httpClientRequiredMessageConstant     = "git api http client not configured"
)

// OperationName identifies a service endpoint in errors and logs.
type OperationName string

// Operations exposed by the service.
const (
	OperationListRepositories OperationName = "ListRepositories"
	OperationRepositoryDetail OperationName = "RepositoryDetail"
	OperationTeamMembers      OperationName = "TeamMembers"
)

var (
	// ErrBaseURLRequired indicates the client was constructed without a service address.
	ErrBaseURLRequired = errors.New(baseURLRequiredMessageConstant)
	// ErrHTTPClientRequired indicates the client was constructed without a transport.
	ErrHTTPClientRequired = errors.New(httpClientRequiredMessageConstant)
)

// FetchError reports a non-200 answer from the service.
type FetchError struct {
	Operation  OperationName
	URL        string
	StatusCode int
}

// Error describes the failed request.
func (fetchError FetchError) Error() string {
	return fmt.Sprintf(fetchErrorTemplateConstant, fetchError.Operation, fetchError.URL, fetchError.StatusCode)
}

// RequestError wraps transport failures raised before a status code was received.
type RequestError struct {
	Operation OperationName
	Cause     error
}

// Error describes the transport failure.
func (requestError RequestError) Error() string {
	return fmt.Sprintf(requestErrorTemplateConstant, requestError.Operation, requestError.Cause)
}

// Unwrap exposes the underlying cause.
func (requestError RequestError) Unwrap() error {
	return requestError.Cause
}

// ResponseDecodingError indicates the body was not the expected JSON document.
type ResponseDecodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the decoding failure.
func (decodingError ResponseDecodingError) Error() string {
	return fmt.Sprintf(responseDecodingErrorTemplateConstant, decodingError.Operation, decodingError.Cause)
}

// Unwrap exposes the underlying JSON error.
func (decodingError ResponseDecodingError) Unwrap() error {
	return decodingError.Cause
}

// MissingFieldError reports an expected field absent from a decoded record.
type MissingFieldError struct {
	Entity string
	Field  string
}

// Error describes the missing field.
func (missingFieldError MissingFieldError) Error() string {
	return fmt.Sprintf(missingFieldErrorTemplateConstant, missingFieldError.Entity, missingFieldError.Field)
}
