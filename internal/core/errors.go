package core

import (
	"errors"
	"fmt"
)

// Kind enumerates the error kinds the engine can surface: insufficient
// data, a missing required field, a transient upstream failure, an unknown
// provider tag, and a configuration error.
type Kind string

const (
	KindInsufficientData  Kind = "insufficient_data"
	KindMissingField      Kind = "missing_field"
	KindUpstreamTransient Kind = "upstream_transient"
	KindInvalidProvider   Kind = "invalid_provider"
	KindConfigurationErr  Kind = "configuration_error"
)

// Error is a typed engine error carrying a Kind alongside the usual wrapped
// cause, so callers at the HTTP boundary can map it to a status code
// without string-matching messages.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, core.ErrInsufficientData(""))-style comparisons
// by kind rather than by exact error value.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newErr(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

func ErrInsufficientData(msg string) error {
	return newErr(KindInsufficientData, msg, nil)
}

func ErrMissingField(field string) error {
	return newErr(KindMissingField, fmt.Sprintf("missing required field %q", field), nil)
}

func ErrUpstreamTransient(provider string, cause error) error {
	return newErr(KindUpstreamTransient, fmt.Sprintf("upstream %q transient failure", provider), cause)
}

func ErrInvalidProvider(tag string) error {
	return newErr(KindInvalidProvider, fmt.Sprintf("no adapter registered for provider %q", tag), nil)
}

func ErrConfiguration(msg string, cause error) error {
	return newErr(KindConfigurationErr, msg, cause)
}

// KindOf extracts the Kind of err if it is (or wraps) a *Error. For any
// other error it returns ("", false).
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
