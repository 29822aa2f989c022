// Package errs contains the error taxonomy shared by the service and HTTP layers.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated means no valid identity accompanied the request.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrProfileNotFound means the identity has no account row.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrNoWorkspace means the account is not bound to a workspace.
	ErrNoWorkspace = errors.New("account has no workspace")

	// ErrAccessDenied covers both "does not exist" and "not yours".
	ErrAccessDenied = errors.New("not found or access denied")

	// ErrUpgradeRequired means the account has no paid or trial access.
	ErrUpgradeRequired = errors.New("no active subscription, upgrade required")

	ErrQuotaExceeded = errors.New("quota exceeded")
	ErrRateLimited   = errors.New("rate limited")
	ErrValidation    = errors.New("validation error")
	ErrDatabase      = errors.New("database error")
)

// QuotaExceededError names the limit that was hit so callers can render an upgrade prompt.
type QuotaExceededError struct {
	Resource string `json:"resource"`
	Tier     string `json:"tier"`
	Limit    int64  `json:"limit"`
	Current  int64  `json:"current"`
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s quota exceeded for %s tier: %d of %d used", e.Resource, e.Tier, e.Current, e.Limit)
}

func (e *QuotaExceededError) Is(target error) bool {
	return target == ErrQuotaExceeded
}

type ValidationError struct {
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Validation builds a ValidationError.
func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Database wraps an upstream datastore failure. The wrapped error is kept for
// server side logging and never shown to callers.
func Database(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrDatabase, err)
}
