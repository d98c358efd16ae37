package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/mdossett204/adaptive-health-project/internal/config"
)

var (
	// ErrConfiguration is returned before any store access when the service
	// is missing its store configuration.
	ErrConfiguration = config.ErrConfiguration

	// ErrInternal is the only failure surfaced for upstream errors. The cause
	// is logged, never returned.
	ErrInternal = errors.New("error occurred during chat")
)

// ValidationError reports a missing or invalid request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// RateLimitedError is returned while a user is inside a rate-limit window.
type RateLimitedError struct {
	RemainingHours     int
	RemainingMinutes   int
	ConversationLength int
	ExpiresAt          time.Time
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit exceeded: try again in %d hours and %d minutes", e.RemainingHours, e.RemainingMinutes)
}
