package session

import (
	"errors"
	"testing"
)

// TestParseCookies tests cookie string parsing.
func TestParseCookies(t *testing.T) {
	t.Parallel()

	t.Run("parses simple pairs", func(t *testing.T) {
		t.Parallel()

		c := ParseCookies("sid=abc123; token=xyz")

		if c.Len() != 2 {
			t.Fatalf("expected 2 cookies, got %d", c.Len())
		}
		if c.Get("sid") != "abc123" {
			t.Errorf("expected abc123, got %q", c.Get("sid"))
		}
	})

	t.Run("value may contain equals signs", func(t *testing.T) {
		t.Parallel()

		c := ParseCookies("data=a=b=c")

		if c.Get("data") != "a=b=c" {
			t.Errorf("expected a=b=c, got %q", c.Get("data"))
		}
	})

	t.Run("drops fragments without equals", func(t *testing.T) {
		t.Parallel()

		c := ParseCookies("sid=1; garbage; ")

		if c.Len() != 1 {
			t.Errorf("expected 1 cookie, got %d", c.Len())
		}
	})

	t.Run("serialization round-trips in order", func(t *testing.T) {
		t.Parallel()

		raw := "b=2; a=1; c=3"
		if got := ParseCookies(raw).String(); got != raw {
			t.Errorf("expected %q, got %q", raw, got)
		}
	})

	t.Run("empty string yields empty set", func(t *testing.T) {
		t.Parallel()

		c := ParseCookies("")
		if !c.IsZero() {
			t.Error("expected empty cookie set")
		}
		if c.String() != "" {
			t.Errorf("expected empty serialization, got %q", c.String())
		}
	})
}

// TestStore tests read-shared credential access and explicit refresh.
func TestStore(t *testing.T) {
	t.Parallel()

	t.Run("missing service returns ErrNoCredentials", func(t *testing.T) {
		t.Parallel()

		s := NewStore(nil)
		if _, err := s.Get("fofa"); !errors.Is(err, ErrNoCredentials) {
			t.Errorf("expected ErrNoCredentials, got %v", err)
		}
	})

	t.Run("empty bundle counts as missing", func(t *testing.T) {
		t.Parallel()

		s := NewStore(map[string]Credential{"fofa": {}})
		if s.Has("fofa") {
			t.Error("expected empty bundle to be unusable")
		}
	})

	t.Run("refresh is the only mutation path", func(t *testing.T) {
		t.Parallel()

		s := NewStore(nil)
		s.RefreshCookies("registry", "sid=abc")

		c, err := s.Get("registry")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.Cookies.Get("sid") != "abc" {
			t.Errorf("expected refreshed cookie, got %q", c.Cookies.Get("sid"))
		}
		if c.LastUpdated.IsZero() {
			t.Error("expected refresh to stamp update time")
		}
	})

	t.Run("api key refresh preserves cookies", func(t *testing.T) {
		t.Parallel()

		s := NewStore(nil)
		s.RefreshCookies("svc", "sid=abc")
		s.RefreshAPIKey("svc", "key-1")

		c, err := s.Get("svc")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.APIKey != "key-1" || c.Cookies.Get("sid") != "abc" {
			t.Error("expected both credential forms to survive refresh")
		}
	})
}

// TestIdentityRotation tests probabilistic User-Agent rotation.
func TestIdentityRotation(t *testing.T) {
	t.Parallel()

	t.Run("never rotates at chance zero", func(t *testing.T) {
		t.Parallel()

		id := NewIdentity(WithRotateChance(0))
		first := id.UserAgent()
		for range 10 {
			if got := id.UserAgent(); got != first {
				t.Fatalf("expected stable agent, got rotation to %q", got)
			}
		}
	})

	t.Run("applies client hint headers", func(t *testing.T) {
		t.Parallel()

		id := NewIdentity(WithRotateChance(0))
		h := make(map[string][]string)
		id.Apply(h)

		if len(h["User-Agent"]) == 0 || h["User-Agent"][0] == "" {
			t.Error("expected User-Agent header")
		}
		if len(h["Sec-Ch-Ua-Mobile"]) == 0 || h["Sec-Ch-Ua-Mobile"][0] != "?0" {
			t.Error("expected desktop client hint")
		}
	})
}
