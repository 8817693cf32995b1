package domain

import (
	"errors"
	"fmt"
)

var (
	ErrIdentityNotFound = errors.New("identity not found")
	ErrPostNotFound     = errors.New("post not found")
	ErrConflict         = errors.New("already exists")
	ErrForbidden        = errors.New("access forbidden")
)

// Credential and session failures.
var (
	ErrUnauthorized      = errors.New("invalid credential")
	ErrCredentialExpired = errors.New("credential expired")
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrTokenMalformed    = errors.New("token malformed")
	ErrTokenSignature    = errors.New("token signature invalid")
	ErrTokenExpired      = errors.New("token expired")

	// ErrDuplicateDelivery means the same credential issuance was already
	// handed to the delivery channel.
	ErrDuplicateDelivery = errors.New("delivery already queued")
)

// Update validation failures.
var (
	ErrInvalidField = errors.New("field cannot be empty")
	ErrNoChange     = errors.New("value same as current")
	ErrInvalidRole  = errors.New("role must be USER or ADMIN")
	ErrEmptyUpdate  = errors.New("nothing to update")
)

// FieldError ties an update validation failure to the field that caused it.
// It unwraps to ErrInvalidField or ErrNoChange.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// InvalidField reports a blank value submitted for field.
func InvalidField(field string) error {
	return &FieldError{Field: field, Err: ErrInvalidField}
}

// NoChange reports a value for field that equals the stored one.
func NoChange(field string) error {
	return &FieldError{Field: field, Err: ErrNoChange}
}
