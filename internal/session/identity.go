package session

import (
	"math/rand/v2"
	"net/http"
	"sync"
)

// desktopUserAgents is the pool of desktop browser User-Agent strings
// used for identity rotation. Mobile agents are deliberately absent:
// the scraped registry serves a different page structure to mobile
// clients, which breaks embedded-object extraction.
var desktopUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/139.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/137.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 11.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/139.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/139.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/139.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:109.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
}

// DefaultRotateChance is the per-request probability of switching to a
// new User-Agent. Rotating on every request is itself a fingerprint, so
// rotation is probabilistic.
const DefaultRotateChance = 0.3

// Identity provides the rotating client-identity headers attached to
// scraper requests. It holds the current User-Agent and switches it
// probabilistically so request sequences do not present a fixed
// fingerprint.
type Identity struct {
	mu           sync.Mutex
	current      string
	rotateChance float64

	// randFloat is swappable for deterministic tests.
	randFloat func() float64

	// randIndex picks a pool index; swappable for tests.
	randIndex func(n int) int
}

// IdentityOption configures an Identity.
type IdentityOption func(*Identity)

// WithRotateChance sets the per-request rotation probability.
func WithRotateChance(p float64) IdentityOption {
	return func(id *Identity) {
		if p >= 0 && p <= 1 {
			id.rotateChance = p
		}
	}
}

// NewIdentity creates an Identity seeded with a random User-Agent.
func NewIdentity(opts ...IdentityOption) *Identity {
	id := &Identity{
		rotateChance: DefaultRotateChance,
		randFloat:    rand.Float64,
		randIndex:    rand.IntN,
	}
	for _, opt := range opts {
		opt(id)
	}
	id.current = desktopUserAgents[id.randIndex(len(desktopUserAgents))]
	return id
}

// UserAgent returns the current User-Agent, possibly rotating first.
func (id *Identity) UserAgent() string {
	id.mu.Lock()
	defer id.mu.Unlock()

	if id.randFloat() < id.rotateChance {
		id.current = desktopUserAgents[id.randIndex(len(desktopUserAgents))]
	}
	return id.current
}

// Apply sets the identity headers on an outbound scraper request:
// the User-Agent plus the browser client-hint headers a real Chrome
// session would send. Servers cross-check these against the User-Agent.
func (id *Identity) Apply(h http.Header) {
	h.Set("User-Agent", id.UserAgent())
	h.Set("Accept-Language", "zh-CN,zh;q=0.9")
	h.Set("sec-ch-ua", `"Not;A=Brand";v="99", "Google Chrome";v="139", "Chromium";v="139"`)
	h.Set("sec-ch-ua-mobile", "?0")
	h.Set("sec-ch-ua-platform", `"Windows"`)
}
