package model

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies failures for retry and HTTP status decisions.
// Only Infrastructure errors are retry-eligible.
type ErrorKind string

const (
	KindConfiguration  ErrorKind = "CONFIGURATION_ERROR"
	KindValidation     ErrorKind = "VALIDATION_ERROR"
	KindPermission     ErrorKind = "PERMISSION_ERROR"
	KindPipeline       ErrorKind = "PIPELINE_ERROR"
	KindInfrastructure ErrorKind = "INFRASTRUCTURE_ERROR"
	KindParse          ErrorKind = "PARSE_ERROR"
	KindNotFound       ErrorKind = "NOT_FOUND"
	KindUnknown        ErrorKind = "INTERNAL_ERROR"
)

// KindedError attaches an ErrorKind to an underlying error.
type KindedError struct {
	Kind ErrorKind
	Err  error
}

func (e *KindedError) Error() string { return e.Err.Error() }
func (e *KindedError) Unwrap() error { return e.Err }

// NewError wraps err with a kind. A nil err yields nil.
func NewError(kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return &KindedError{Kind: kind, Err: err}
}

// Errorf builds a kinded error from a format string.
func Errorf(kind ErrorKind, format string, args ...any) error {
	return &KindedError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the ErrorKind from err, defaulting to KindUnknown.
func KindOf(err error) ErrorKind {
	var ke *KindedError
	if errors.As(err, &ke) {
		return ke.Kind
	}
	return KindUnknown
}

// IsRetriable reports whether err should be retried. Strictly kind-based:
// validation and parse errors must never retry.
func IsRetriable(err error) bool {
	return KindOf(err) == KindInfrastructure
}

// StatusFor maps an error kind to an HTTP status code.
func StatusFor(kind ErrorKind) int {
	switch kind {
	case KindConfiguration:
		return http.StatusBadRequest
	case KindValidation, KindPipeline, KindParse:
		return http.StatusUnprocessableEntity
	case KindPermission:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindInfrastructure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
