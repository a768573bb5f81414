package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/nao1215/tornago"
)

// defaultTorStartupTimeout is how long bootstrap may take. The daemon
// has to fetch directory information and build circuits, which can run
// into minutes on a cold start.
const defaultTorStartupTimeout = 3 * time.Minute

// EmbeddedTor manages an embedded Tor daemon so anonymized collection
// works without an external Tor installation. Start it, then call
// Transport to obtain a client routed through its SOCKS port.
type EmbeddedTor struct {
	process        *tornago.TorProcess
	socksAddr      string
	startupTimeout time.Duration
}

// EmbeddedTorOption configures an EmbeddedTor instance.
type EmbeddedTorOption func(*EmbeddedTor)

// WithStartupTimeout sets the maximum time to wait for Tor to bootstrap.
func WithStartupTimeout(timeout time.Duration) EmbeddedTorOption {
	return func(e *EmbeddedTor) {
		if timeout > 0 {
			e.startupTimeout = timeout
		}
	}
}

// NewEmbeddedTor creates an embedded Tor manager. Call Start to launch
// the daemon.
func NewEmbeddedTor(opts ...EmbeddedTorOption) *EmbeddedTor {
	e := &EmbeddedTor{startupTimeout: defaultTorStartupTimeout}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start launches the Tor daemon on OS-assigned ports and blocks until
// it has bootstrapped or the startup timeout expires.
func (e *EmbeddedTor) Start(ctx context.Context) error {
	launchCfg, err := tornago.NewTorLaunchConfig(
		tornago.WithTorSocksAddr(":0"),
		tornago.WithTorControlAddr(":0"),
		tornago.WithTorStartupTimeout(e.startupTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create Tor launch config: %w", err)
	}

	process, err := tornago.StartTorDaemon(launchCfg)
	if err != nil {
		return fmt.Errorf("failed to start embedded Tor daemon: %w", err)
	}

	select {
	case <-ctx.Done():
		_ = process.Stop() //nolint:errcheck // best effort cleanup
		return ctx.Err()
	default:
	}

	e.process = process
	e.socksAddr = process.SocksAddr()
	return nil
}

// Stop shuts down the daemon. Safe to call on an unstarted instance.
func (e *EmbeddedTor) Stop() error {
	if e.process == nil {
		return nil
	}
	err := e.process.Stop()
	e.process = nil
	return err
}

// IsRunning reports whether the daemon is up.
func (e *EmbeddedTor) IsRunning() bool {
	return e.process != nil
}

// SocksAddr returns the daemon's SOCKS5 address, or "" before Start.
func (e *EmbeddedTor) SocksAddr() string {
	return e.socksAddr
}

// Transport returns a transport routed through the embedded daemon.
// Closing the returned transport stops the daemon.
func (e *EmbeddedTor) Transport(timeout time.Duration) (*Transport, error) {
	if !e.IsRunning() {
		return nil, ErrTorNotRunning
	}
	t, err := NewSOCKS5(e.socksAddr, timeout)
	if err != nil {
		return nil, err
	}
	t.mode = "tor " + e.socksAddr
	t.cleanup = e.Stop
	return t, nil
}
