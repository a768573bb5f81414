// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// This package extends slog to provide:
//   - Automatic sanitization of sensitive values (cookies, API keys, tokens)
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//   - Compatibility with tornago's slog-based logging
//
// # Security Features
//
// The SecureHandler automatically sanitizes sensitive information in log output:
//   - HTTP headers (Authorization, Cookie, Set-Cookie, X-Api-Key, X-QuakeToken)
//   - Browser session cookies copied from the user's logged-in session
//   - Backend API keys detected by key name or value pattern
//   - Secret values detected by pattern matching (passwords, tokens, keys)
//
// Collection runs carry the user's live registry session and paid API
// keys; even in verbose mode these values are masked so logs can be
// shared or stored without leaking access.
//
// # Usage
//
//	// Create a secure logger
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	// Use as a standard slog.Logger
//	logger.Info("request sent",
//	    "cookie", "BDUSS=abc123; BAIDUID=xyz",  // Will be sanitized
//	    "url", "https://example.com",
//	)
//
//	// Set as default logger
//	slog.SetDefault(logger)
package log
