// Package errors holds the failure kinds the user operations distinguish.
// Parse and connect failures both end as an internal error on the wire; only
// NotFoundError changes the response status.
package errors

import (
	"errors"
	"fmt"
)

// ErrNotFound matches any *NotFoundError with errors.Is.
var ErrNotFound = NewNotFoundError("user", "")

// ParseError is input that could not be decoded: an id segment or a request body.
type ParseError struct {
	Field   string
	Message string
	Err     error
}

func NewParseError(field, message string, err error) *ParseError {
	return &ParseError{Field: field, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return "parse failed: " + e.Message
	}
	return fmt.Sprintf("parse failed: %s: %s", e.Field, e.Message)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ConnectError is a failure to check a connection out of the pool.
type ConnectError struct {
	Err error
}

func NewConnectError(err error) *ConnectError {
	return &ConnectError{Err: err}
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("database connect failed: %v", e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// NotFoundError is a lookup that ran and matched no row.
type NotFoundError struct {
	Resource string
	Message  string
}

func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{Resource: resource, Message: message}
}

func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Resource + " not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}

// IsParse reports whether err carries a ParseError.
func IsParse(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsConnect reports whether err carries a ConnectError.
func IsConnect(err error) bool {
	var ce *ConnectError
	return errors.As(err, &ce)
}
