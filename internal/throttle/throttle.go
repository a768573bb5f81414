package throttle

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"
)

// Default spacing and escalation parameters. The base band is tuned for
// interactive use; batch callers add their own inter-target delay on top.
const (
	// DefaultMinInterval and DefaultMaxInterval bound the randomized
	// per-host spacing between requests.
	DefaultMinInterval = 300 * time.Millisecond
	DefaultMaxInterval = 800 * time.Millisecond

	// escalationFactor multiplies the interval band on each Escalate call.
	escalationFactor = 2.0

	// maxEscalation caps the multiplier so a persistently hostile host
	// cannot push waits into minutes.
	maxEscalation = 8.0

	// decayAfterSuccesses is how many consecutive successes halve the
	// escalation multiplier.
	decayAfterSuccesses = 3
)

// hostState tracks per-host timing. The throttle guarantees that two
// requests to the same host are never closer than the current randomized
// minimum interval unless the caller explicitly bypasses it.
type hostState struct {
	lastRequest time.Time
	escalation  float64
	successes   int
}

// Throttle spaces requests per host. It is safe for concurrent use: the
// engine itself is single-threaded, but the mutex keeps the contract
// intact for any future parallel runner.
type Throttle struct {
	mu     sync.Mutex
	hosts  map[string]*hostState
	min    time.Duration
	max    time.Duration
	logger *slog.Logger

	// sleep is swappable for tests so they do not wall-clock wait.
	sleep func(ctx context.Context, d time.Duration) error

	// now is swappable for tests.
	now func() time.Time

	// randFloat is swappable for deterministic interval tests.
	randFloat func() float64
}

// Option configures a Throttle.
type Option func(*Throttle)

// WithInterval sets the randomized spacing band.
func WithInterval(minInterval, maxInterval time.Duration) Option {
	return func(t *Throttle) {
		if minInterval > 0 && maxInterval >= minInterval {
			t.min = minInterval
			t.max = maxInterval
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Throttle) {
		t.logger = logger
	}
}

// New creates a Throttle with the given options.
func New(opts ...Option) *Throttle {
	t := &Throttle{
		hosts:     make(map[string]*hostState),
		min:       DefaultMinInterval,
		max:       DefaultMaxInterval,
		sleep:     sleepContext,
		now:       time.Now,
		randFloat: rand.Float64,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	return t
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

// Wait blocks until the host's randomized minimum interval has elapsed
// since the previous request, then stamps the request time. It returns
// the delay that was applied, which is zero when enough time has already
// passed. The stamp is written even when no wait was needed, and also
// when the context is cancelled mid-wait.
func (t *Throttle) Wait(ctx context.Context, host string) (time.Duration, error) {
	t.mu.Lock()
	st, ok := t.hosts[host]
	if !ok {
		st = &hostState{escalation: 1.0}
		t.hosts[host] = st
	}

	// Randomize within the escalated band so spacing never settles into
	// a fixed, fingerprintable cadence.
	band := float64(t.max - t.min)
	interval := time.Duration(float64(t.min) + t.randFloat()*band)
	interval = time.Duration(float64(interval) * st.escalation)

	elapsed := t.now().Sub(st.lastRequest)
	var delay time.Duration
	if st.lastRequest.IsZero() || elapsed >= interval {
		st.lastRequest = t.now()
		t.mu.Unlock()
		return 0, nil
	}
	delay = interval - elapsed
	t.mu.Unlock()

	t.logger.Debug("throttling request",
		"host", host,
		"delay", delay,
	)

	err := t.sleep(ctx, delay)

	t.mu.Lock()
	st.lastRequest = t.now()
	t.mu.Unlock()

	return delay, err
}

// Escalate widens the host's interval band after detected blocking.
// Escalation is multiplicative and capped.
func (t *Throttle) Escalate(host string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.hosts[host]
	if !ok {
		st = &hostState{escalation: 1.0}
		t.hosts[host] = st
	}
	st.successes = 0
	st.escalation *= escalationFactor
	if st.escalation > maxEscalation {
		st.escalation = maxEscalation
	}

	t.logger.Debug("throttle escalated",
		"host", host,
		"multiplier", st.escalation,
	)
}

// Success records a successful request. After enough consecutive
// successes the escalation multiplier halves, decaying back to 1.
func (t *Throttle) Success(host string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.hosts[host]
	if !ok || st.escalation <= 1.0 {
		return
	}
	st.successes++
	if st.successes < decayAfterSuccesses {
		return
	}
	st.successes = 0
	st.escalation /= escalationFactor
	if st.escalation < 1.0 {
		st.escalation = 1.0
	}
}

// escalationOf reports the current multiplier for a host. Test hook.
func (t *Throttle) escalationOf(host string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if st, ok := t.hosts[host]; ok {
		return st.escalation
	}
	return 1.0
}
