package registry

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/reconkit/orgscan/internal/classify"
	"github.com/reconkit/orgscan/internal/model"
	"github.com/reconkit/orgscan/internal/session"
	"github.com/reconkit/orgscan/internal/throttle"
)

// Credential store service names. The registry proper is scraped with a
// browser cookie session; the CRM sibling service has its own session.
const (
	ServiceRegistry = "registry"
	ServiceCRM      = "crm"
)

// Production endpoints. Tests point the client at httptest servers.
const (
	defaultRegistryBase = "https://aiqicha.baidu.com"
	defaultCRMBase      = "https://xunkebao.baidu.com"
)

// maxAttempts bounds retries for a single logical call. The budget is
// shared by transient faults and blocking; non-retryable failures stop
// immediately.
const maxAttempts = 3

// maxResponseBytes caps how much of a response is read. Registry pages
// run to a few hundred KB; anything beyond this is not a page we can use.
const maxResponseBytes = 8 << 20

// Client is the enterprise-registry scraper. All calls share one
// throttle, one rotating identity, and one credential store, so a batch
// of targets presents as a single, politely paced browser session.
type Client struct {
	http         *http.Client
	registryBase string
	crmBase      string
	creds        *session.Store
	identity     *session.Identity
	throttle     *throttle.Throttle
	classifier   *classify.Classifier
	logger       *slog.Logger

	// sleep is swappable for tests so backoff never wall-clock waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURLs overrides the registry and CRM endpoints.
func WithBaseURLs(registryBase, crmBase string) Option {
	return func(c *Client) {
		if registryBase != "" {
			c.registryBase = registryBase
		}
		if crmBase != "" {
			c.crmBase = crmBase
		}
	}
}

// WithThrottle sets a custom throttle.
func WithThrottle(t *throttle.Throttle) Option {
	return func(c *Client) {
		if t != nil {
			c.throttle = t
		}
	}
}

// WithIdentity sets a custom rotating identity.
func WithIdentity(id *session.Identity) Option {
	return func(c *Client) {
		if id != nil {
			c.identity = id
		}
	}
}

// WithClassifier sets a custom response classifier.
func WithClassifier(cl *classify.Classifier) Option {
	return func(c *Client) {
		if cl != nil {
			c.classifier = cl
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a registry client. The HTTP client comes from the
// transport layer; the credential store must carry cookie sessions for
// the services a call touches.
func NewClient(httpClient *http.Client, creds *session.Store, opts ...Option) *Client {
	c := &Client{
		http:         httpClient,
		registryBase: defaultRegistryBase,
		crmBase:      defaultCRMBase,
		creds:        creds,
		sleep:        sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.identity == nil {
		c.identity = session.NewIdentity()
	}
	if c.throttle == nil {
		c.throttle = throttle.New()
	}
	if c.classifier == nil {
		c.classifier = classify.New()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// request describes one logical registry call. The body is a byte slice
// so retries can resend it.
type request struct {
	method  string
	url     string
	service string
	referer string
	ajax    bool
	body    []byte
}

// do executes a request with throttling, identity rotation, response
// classification, and bounded retry. It returns the response body on
// success and a *model.Failure on any terminal condition.
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	cred, err := c.creds.Get(r.service)
	if err != nil {
		return nil, model.WrapFailure(model.FailureConfiguration,
			fmt.Sprintf("no session for service %q", r.service), err)
	}

	u, err := url.Parse(r.url)
	if err != nil {
		return nil, model.WrapFailure(model.FailureConfiguration, "invalid request URL", err)
	}
	host := u.Host

	var lastFailure *model.Failure
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			// Exponential backoff between attempts, on top of throttling.
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			if err := c.sleep(ctx, backoff); err != nil {
				return nil, model.WrapFailure(model.FailureTransientNetwork, "backoff interrupted", err)
			}
		}
		if _, err := c.throttle.Wait(ctx, host); err != nil {
			return nil, model.WrapFailure(model.FailureTransientNetwork, "throttle wait interrupted", err)
		}

		body, failure := c.doOnce(ctx, r, cred)
		if failure == nil {
			c.throttle.Success(host)
			return body, nil
		}
		lastFailure = failure

		if failure.Kind == model.FailureBlockedByTarget {
			c.throttle.Escalate(host)
		}
		if !failure.Kind.Retryable() {
			return nil, failure
		}
		c.logger.Warn("registry request failed, retrying",
			"url", r.url,
			"attempt", attempt+1,
			"kind", string(failure.Kind),
		)
	}
	return nil, lastFailure
}

// doOnce performs a single HTTP exchange and classifies the result.
func (c *Client) doOnce(ctx context.Context, r request, cred session.Credential) ([]byte, *model.Failure) {
	var bodyReader io.Reader
	if len(r.body) > 0 {
		bodyReader = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, r.url, bodyReader)
	if err != nil {
		return nil, model.WrapFailure(model.FailureConfiguration, "building request", err)
	}

	c.identity.Apply(req.Header)
	req.Header.Set("Cookie", cred.Cookies.String())
	if r.referer != "" {
		req.Header.Set("Referer", r.referer)
	}
	if r.ajax {
		req.Header.Set("Accept", "application/json, text/plain, */*")
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
	} else {
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	}
	if len(r.body) > 0 {
		req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, model.WrapFailure(model.FailureTransientNetwork, "request failed", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read side, nothing to report

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, model.WrapFailure(model.FailureTransientNetwork, "reading response body", err)
	}

	switch c.classifier.Classify(resp.StatusCode, string(body)) {
	case classify.ResultBlocked:
		return nil, model.NewFailure(model.FailureBlockedByTarget,
			fmt.Sprintf("target served a countermeasure page (status %d)", resp.StatusCode))
	case classify.ResultHardError:
		if resp.StatusCode >= 500 {
			return nil, model.NewFailure(model.FailureTransientNetwork,
				fmt.Sprintf("server error %d", resp.StatusCode))
		}
		return nil, model.NewFailure(model.FailureMalformedPayload,
			fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}
	return body, nil
}

// sleepContext blocks for d or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
