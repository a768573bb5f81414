package model

import "fmt"

// FailureKind categorizes why a stage or backend call failed.
// The kind drives retry policy: transient failures are retried with
// backoff, blocked failures are retried with throttle escalation, and
// the remaining kinds are never retried.
type FailureKind string

const (
	// FailureTransientNetwork covers timeouts, resets, and other
	// recoverable network faults. Retried with backoff, bounded.
	FailureTransientNetwork FailureKind = "transient_network"

	// FailureBlockedByTarget means the remote site served a verification
	// challenge or otherwise refused the request as automated traffic.
	// Retried with throttle escalation, bounded, then the stage is skipped.
	FailureBlockedByTarget FailureKind = "blocked_by_target"

	// FailureMalformedPayload means a response was received but the
	// expected structure could not be recovered from it. Never retried;
	// repeating the same request yields the same payload.
	FailureMalformedPayload FailureKind = "malformed_payload"

	// FailureMissingDependency means a prior stage failed to produce an
	// identifier this stage needs. The stage is skipped without running.
	FailureMissingDependency FailureKind = "missing_dependency"

	// FailureConfiguration means credentials are missing or invalid.
	// The target fails immediately without consuming retry budget so the
	// caller can prompt for a credential refresh.
	FailureConfiguration FailureKind = "configuration_error"
)

// Retryable reports whether a failure of this kind may be retried.
func (k FailureKind) Retryable() bool {
	return k == FailureTransientNetwork || k == FailureBlockedByTarget
}

// Failure is a structured, classified error produced at a stage or
// backend boundary. Failures never propagate past the pipeline runner or
// the dispatcher; they are converted into stage/backend outcomes there.
type Failure struct {
	// Kind is the failure category used for retry and skip decisions.
	Kind FailureKind

	// Message is a human-readable description safe to surface to callers.
	Message string

	// Err is the underlying error, if any. It is kept for logging and
	// errors.Is/As chains but is not serialized into reports.
	Err error
}

// Error implements the error interface.
func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Unwrap returns the underlying error for errors.Is/As.
func (f *Failure) Unwrap() error {
	return f.Err
}

// NewFailure creates a Failure with the given kind and message.
func NewFailure(kind FailureKind, message string) *Failure {
	return &Failure{Kind: kind, Message: message}
}

// WrapFailure creates a Failure that wraps an underlying error.
func WrapFailure(kind FailureKind, message string, err error) *Failure {
	return &Failure{Kind: kind, Message: message, Err: err}
}
