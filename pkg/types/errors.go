package types

import (
	"errors"
	"fmt"
	"time"
)

// The error taxonomy below models §7's error kinds as distinct wrapped
// types rather than string-tagged generic errors, so callers can branch
// with errors.As instead of string matching. Each kind wraps an optional
// underlying cause and implements Unwrap for errors.Is/As chains.

// ConfigurationError surfaces before any remote call: invalid batch size,
// unknown entity, unreadable mapping document.
type ConfigurationError struct {
	Message string
	Cause   error
}

func NewConfigurationError(message string, cause error) *ConfigurationError {
	return &ConfigurationError{Message: message, Cause: cause}
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("configuration: %s", e.Message)
}

func (e *ConfigurationError) Unwrap() error { return e.Cause }

// AuthenticationError is surfaced once by the Connection Source on
// credential failure or expiry; callers should request re-acquisition,
// not retry blindly.
type AuthenticationError struct {
	Endpoint string
	Cause    error
}

func NewAuthenticationError(endpoint string, cause error) *AuthenticationError {
	return &AuthenticationError{Endpoint: endpoint, Cause: cause}
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed for %s: %v", e.Endpoint, e.Cause)
}

func (e *AuthenticationError) Unwrap() error { return e.Cause }

// ThrottledError signals the remote rate-limited a request. The executor
// retries it internally with backoff; it never surfaces as a failure
// unless the retry budget is exhausted.
type ThrottledError struct {
	Endpoint   string
	RetryAfter time.Duration
	Cause      error
}

func NewThrottledError(endpoint string, retryAfter time.Duration, cause error) *ThrottledError {
	return &ThrottledError{Endpoint: endpoint, RetryAfter: retryAfter, Cause: cause}
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("throttled by %s, retry after %s", e.Endpoint, e.RetryAfter)
}

func (e *ThrottledError) Unwrap() error { return e.Cause }

// TransientError covers network resets, 5xx, and timeouts; retried by the
// executor up to the configured retry policy.
type TransientError struct {
	Endpoint string
	Cause    error
}

func NewTransientError(endpoint string, cause error) *TransientError {
	return &TransientError{Endpoint: endpoint, Cause: cause}
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient error calling %s: %v", e.Endpoint, e.Cause)
}

func (e *TransientError) Unwrap() error { return e.Cause }

// PermanentPerRecordError is raised when the remote accepted a batch but
// rejected one record inside it (validation, missing reference,
// permission). Surfaced as a per-record failure; the pipeline continues
// when ContinueOnError is set.
type PermanentPerRecordError struct {
	RowRef    RowRef
	Entity    string
	Field     string
	ErrorCode string
	Cause     error
}

func NewPermanentPerRecordError(rowRef RowRef, entity, field, errorCode string, cause error) *PermanentPerRecordError {
	return &PermanentPerRecordError{RowRef: rowRef, Entity: entity, Field: field, ErrorCode: errorCode, Cause: cause}
}

func (e *PermanentPerRecordError) Error() string {
	return fmt.Sprintf("record %s (%s) rejected [%s]: %v", e.RowRef, e.Entity, e.ErrorCode, e.Cause)
}

func (e *PermanentPerRecordError) Unwrap() error { return e.Cause }

// PermanentPerBatchError is raised when the remote rejects an entire batch
// in a non-retryable way; fatal for that batch, aborts the pipeline unless
// ContinueOnError is set.
type PermanentPerBatchError struct {
	Entity string
	Cause  error
}

func NewPermanentPerBatchError(entity string, cause error) *PermanentPerBatchError {
	return &PermanentPerBatchError{Entity: entity, Cause: cause}
}

func (e *PermanentPerBatchError) Error() string {
	return fmt.Sprintf("batch for %s rejected: %v", e.Entity, e.Cause)
}

func (e *PermanentPerBatchError) Unwrap() error { return e.Cause }

// CancelledError marks a caller-initiated cancellation; it is a terminal
// result, not a failure to be retried or reported as an error to the user.
type CancelledError struct {
	Reason string
}

func NewCancelledError(reason string) *CancelledError {
	return &CancelledError{Reason: reason}
}

func (e *CancelledError) Error() string {
	if e.Reason == "" {
		return "cancelled"
	}
	return fmt.Sprintf("cancelled: %s", e.Reason)
}

// IsCancelled reports whether err is or wraps a CancelledError.
func IsCancelled(err error) bool {
	var ce *CancelledError
	return errors.As(err, &ce)
}

// IsThrottled reports whether err is or wraps a ThrottledError.
func IsThrottled(err error) bool {
	var te *ThrottledError
	return errors.As(err, &te)
}

// IsTransient reports whether err is or wraps a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsRetryable reports whether the executor should retry err: Throttled and
// Transient are retried; everything else is propagated per §7.
func IsRetryable(err error) bool {
	return IsThrottled(err) || IsTransient(err)
}
