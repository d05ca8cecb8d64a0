package app

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrNoSession            = errors.New("no health session")
	ErrSessionInvalid       = errors.New("health session is no longer valid")
	ErrMessageEmpty         = errors.New("message content is empty")
	ErrMessageNotFound      = errors.New("message not found")
	ErrMessageNotDeletable  = errors.New("message has no remote id, reload history first")
	ErrNotRetryable         = errors.New("message is not a failed user message")
	ErrCapability           = errors.New("operation is not available in this chat mode")
	ErrUnknownStep          = errors.New("unknown onboarding step")
	ErrOnboardingIncomplete = errors.New("onboarding is incomplete")
	ErrNotificationNotFound = errors.New("notification not found")
)

// ValidationError lists the fields that failed validation, keyed by their
// JSON names.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
