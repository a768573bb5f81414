package transport

import "errors"

var (
	// ErrInvalidProxyAddress is returned when the proxy address is not
	// in "host:port" form with a valid port number.
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrTorNotRunning is returned when a Tor-backed client is requested
	// before the embedded daemon has started.
	ErrTorNotRunning = errors.New("embedded Tor daemon is not running")
)
