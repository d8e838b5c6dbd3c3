// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Common application errors. All are local, recoverable-by-caller faults: the
// caller decides whether to retry, skip the vendor, or escalate.
var (
	// Session lifecycle errors.
	ErrDuplicateSession = errors.New("duplicate session")
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionTerminal  = errors.New("session already terminal")
	ErrMissingContext   = errors.New("missing negotiation context")

	// Response generation errors.
	ErrGenerationFailed = errors.New("response generation failed")
)

// MissingContextError reports which required negotiation parameters were
// absent at session start.
type MissingContextError struct {
	Fields []string
}

func (e *MissingContextError) Error() string {
	return fmt.Sprintf("missing negotiation context: %s", strings.Join(e.Fields, ", "))
}

func (e *MissingContextError) Unwrap() error {
	return ErrMissingContext
}

// NewMissingContextError creates an error naming every absent field.
func NewMissingContextError(fields ...string) error {
	return &MissingContextError{Fields: fields}
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
