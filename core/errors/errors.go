// Package errors defines the orchestrator error taxonomy and the handling
// policy attached to each kind.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies an orchestrator failure. Each kind has a defined policy
// for recovery, retry, and what the user is allowed to see.
type Kind int

const (
	// KindClassification indicates the model-backed intent classifier failed
	// or returned unparsable output. Recovered locally by the heuristic
	// fallback stage; never surfaced to the user.
	KindClassification Kind = iota

	// KindPermissionDenied indicates the permission evaluator rejected the
	// request. Surfaced as a fixed, generic refusal that does not confirm
	// whether the requested record exists.
	KindPermissionDenied

	// KindProviderUnavailable indicates every eligible LLM provider was
	// exhausted. Surfaced as a single static apology; the session stays
	// usable for the next turn.
	KindProviderUnavailable

	// KindActionValidation indicates a proposal was missing required fields.
	// The proposal is discarded before any mutation occurs.
	KindActionValidation

	// KindActionExecution indicates a downstream mutation failed. Never
	// retried automatically; most handlers are not idempotent.
	KindActionExecution

	// KindUnknownAction indicates a confirmation type with no registered
	// handler.
	KindUnknownAction

	// KindStaleConfirmation indicates a confirm request that does not match
	// the currently held proposal. Rejected as a no-op.
	KindStaleConfirmation
)

var kindNames = map[Kind]string{
	KindClassification:      "classification",
	KindPermissionDenied:    "permission_denied",
	KindProviderUnavailable: "provider_unavailable",
	KindActionValidation:    "action_validation",
	KindActionExecution:     "action_execution",
	KindUnknownAction:       "unknown_action",
	KindStaleConfirmation:   "stale_confirmation",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Error wraps a failure with its taxonomy kind.
type Error struct {
	Kind       Kind
	Message    string
	Underlying error
	Context    map[string]string
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Underlying
}

// Is matches another *Error by kind.
func (e *Error) Is(target error) bool {
	var oe *Error
	if errors.As(target, &oe) {
		return e.Kind == oe.Kind
	}
	return false
}

// New creates a classified error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a classified error around an underlying cause.
func Wrap(kind Kind, message string, underlying error) *Error {
	return &Error{Kind: kind, Message: message, Underlying: underlying}
}

// KindOf extracts the taxonomy kind from err, reporting whether err carries
// one.
func KindOf(err error) (Kind, bool) {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Kind, true
	}
	return 0, false
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// RetryPolicy controls exponential backoff for provider failures.
type RetryPolicy struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryPolicy matches the backoff window used by the LLM router when
// a provider call fails.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		InitialDelay: 1 * time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2.0,
	}
}
