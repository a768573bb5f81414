package transport

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/net/proxy"
)

// DefaultTimeout bounds a single request end to end. Registry pages are
// small; anything slower than this is effectively down.
const DefaultTimeout = 15 * time.Second

// maxRedirects stops redirect loops while allowing the usual
// login-bounce chains registry sites produce.
const maxRedirects = 10

// Transport owns an HTTP client and whatever network resources back it.
// Close releases those resources; for a direct or proxied transport it
// is a no-op.
type Transport struct {
	client  *http.Client
	mode    string
	cleanup func() error
}

// Client returns the HTTP client. The same client is shared by all
// callers so connection pooling works across stages.
func (t *Transport) Client() *http.Client {
	return t.client
}

// Mode describes how traffic leaves the host, for logging.
func (t *Transport) Mode() string {
	return t.mode
}

// Close releases transport resources.
func (t *Transport) Close() error {
	if t.cleanup == nil {
		return nil
	}
	return t.cleanup()
}

// NewDirect creates a transport that connects without any proxy.
func NewDirect(timeout time.Duration) *Transport {
	return &Transport{
		client: newHTTPClient(nil, timeout),
		mode:   "direct",
	}
}

// NewSOCKS5 creates a transport that routes all traffic through a
// SOCKS5 proxy at addr ("host:port"). The proxy is not contacted here;
// a dead proxy surfaces as a dial error on the first request.
func NewSOCKS5(addr string, timeout time.Duration) (*Transport, error) {
	if err := validateProxyAddress(addr); err != nil {
		return nil, err
	}
	dialer, err := proxy.SOCKS5("tcp", addr, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}
	return &Transport{
		client: newHTTPClient(dialer, timeout),
		mode:   "socks5 " + addr,
	}, nil
}

// newHTTPClient assembles the shared client shape. A nil dialer means
// direct connections. No cookie jar: session state lives in the
// credential store, not in the transport.
func newHTTPClient(dialer proxy.Dialer, timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	tr := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     30 * time.Second,
	}
	if dialer != nil {
		tr.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	}

	return &http.Client{
		Transport: tr,
		Timeout:   timeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}

// validateProxyAddress checks "host:port" form with a port in range.
func validateProxyAddress(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil || host == "" {
		return ErrInvalidProxyAddress
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return ErrInvalidProxyAddress
	}
	return nil
}
