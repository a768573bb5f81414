package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/reconkit/orgscan/internal/model"
	"github.com/reconkit/orgscan/internal/query"
	"github.com/reconkit/orgscan/internal/session"
)

// Credential store service names, one per backend.
const (
	ServiceFOFA   = "fofa"
	ServiceHunter = "hunter"
	ServiceQuake  = "quake"
)

// maxResponseBytes caps how much of an API response is read. Result
// pages are bounded by the request size, so anything beyond this is not
// a payload we can use.
const maxResponseBytes = 4 << 20

// Backend is one asset-search service. Search takes a query already
// rendered in the backend's own dialect and returns normalized entries
// plus the backend-reported total match count.
type Backend interface {
	// Name identifies the backend and doubles as its credential store key.
	Name() string

	// Dialect is the query dialect the backend's Search expects.
	Dialect() query.Dialect

	// Search executes the translated query, requesting up to limit rows.
	Search(ctx context.Context, translated string, limit int) ([]model.Entry, int, error)
}

// client is the plumbing every backend shares: HTTP transport, endpoint
// base, credential store, and logger.
type client struct {
	http   *http.Client
	base   string
	creds  *session.Store
	logger *slog.Logger
}

// Option configures a backend's shared client.
type Option func(*client)

// WithBaseURL overrides the backend's API endpoint.
func WithBaseURL(base string) Option {
	return func(c *client) {
		if base != "" {
			c.base = base
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// newClient builds the shared plumbing with the backend's default base.
func newClient(httpClient *http.Client, creds *session.Store, base string, opts ...Option) client {
	c := client{
		http:   httpClient,
		base:   base,
		creds:  creds,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// doJSON performs the exchange and decodes the response body into out.
// Status codes are mapped onto the failure taxonomy so the dispatcher
// can escalate throttling on blocks.
func (c *client) doJSON(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return model.WrapFailure(model.FailureTransientNetwork, "request failed", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read side, nothing to report

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return model.WrapFailure(model.FailureTransientNetwork, "reading response body", err)
	}

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return model.NewFailure(model.FailureBlockedByTarget,
			fmt.Sprintf("rate limited (status %d)", resp.StatusCode))
	case resp.StatusCode >= 500:
		return model.NewFailure(model.FailureTransientNetwork,
			fmt.Sprintf("server error %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return model.NewFailure(model.FailureMalformedPayload,
			fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Debug("undecodable backend payload", "length", len(body))
		return model.WrapFailure(model.FailureMalformedPayload, "decoding response", err)
	}
	return nil
}

// asString renders a JSON scalar as a string. Backends that return
// positional arrays mix strings and numbers in the same column across
// result pages.
func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}
