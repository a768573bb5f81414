package config

import "errors"

// Configuration validation errors.
// These errors are returned by the Validate methods and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than fmt.Errorf()
// because we don't need to include dynamic values in these messages.
var (
	// ErrNoTarget is returned when no company name or list file is specified.
	// This error occurs when neither --list nor a positional argument provides a target.
	ErrNoTarget = errors.New("no target specified: provide a company name or use --list")

	// ErrNoQuery is returned when a search run is started without a query.
	ErrNoQuery = errors.New("no query specified: provide a search expression")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	// A timeout of zero or negative would cause immediate connection failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidLimit is returned when the search limit is not positive.
	// A limit of zero would request empty result pages from every backend.
	ErrInvalidLimit = errors.New("invalid search limit: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrConflictingTransports is returned when both --proxy and --tor are
	// specified. Only one transport can carry the traffic.
	ErrConflictingTransports = errors.New("conflicting transports: --proxy and --tor cannot be used together")

	// ErrInvalidTargetDelay is returned when the inter-target delay band is
	// not a valid interval (negative minimum, or maximum below minimum).
	ErrInvalidTargetDelay = errors.New("invalid target delay: minimum must be non-negative and not exceed maximum")

	// ErrUnknownBackend is returned when a backend name is not one of
	// fofa, hunter, or quake.
	ErrUnknownBackend = errors.New("unknown backend: valid backends are fofa, hunter, quake")
)
