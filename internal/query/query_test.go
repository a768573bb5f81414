package query

import (
	"strings"
	"testing"
)

// TestParse tests typing of user input into unified fields.
func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("bare ip", func(t *testing.T) {
		t.Parallel()

		q := Parse("203.0.113.7")
		if q.IP != "203.0.113.7" || len(q.Raw) != 0 {
			t.Errorf("unexpected query: %+v", q)
		}
	})

	t.Run("bare domain", func(t *testing.T) {
		t.Parallel()

		q := Parse("example.com")
		if q.Domain != "example.com" {
			t.Errorf("unexpected query: %+v", q)
		}
	})

	t.Run("field clauses in any backend spelling", func(t *testing.T) {
		t.Parallel()

		for _, input := range []string{
			`port=80 && title="login"`,
			`ip.port="80" && web.title="login"`,
			`port:80 AND title:"login"`,
		} {
			q := Parse(input)
			if q.Port != "80" || q.Title != "login" {
				t.Errorf("input %q: unexpected query %+v", input, q)
			}
		}
	})

	t.Run("unrecognized clause becomes a raw term", func(t *testing.T) {
		t.Parallel()

		q := Parse(`cert.is_trust=true && port=443`)
		if q.Port != "443" {
			t.Errorf("typed clause lost: %+v", q)
		}
		if len(q.Raw) != 1 || q.Raw[0] != "cert.is_trust=true" {
			t.Errorf("unexpected raw terms: %v", q.Raw)
		}
	})

	t.Run("empty input is a zero query", func(t *testing.T) {
		t.Parallel()

		if q := Parse("  "); !q.IsZero() {
			t.Errorf("expected zero query, got %+v", q)
		}
	})
}

// TestTranslate tests per-dialect rendering.
func TestTranslate(t *testing.T) {
	t.Parallel()

	q := Unified{Port: "80", Title: "login"}

	t.Run("fofa", func(t *testing.T) {
		t.Parallel()

		got := Translate(q, DialectFOFA)
		if got.Query != `port="80" && title="login"` {
			t.Errorf("unexpected query: %q", got.Query)
		}
	})

	t.Run("hunter", func(t *testing.T) {
		t.Parallel()

		got := Translate(q, DialectHunter)
		if got.Query != `ip.port="80" && web.title="login"` {
			t.Errorf("unexpected query: %q", got.Query)
		}
	})

	t.Run("quake", func(t *testing.T) {
		t.Parallel()

		got := Translate(q, DialectQuake)
		if got.Query != `port:80 AND title:"login"` {
			t.Errorf("unexpected query: %q", got.Query)
		}
	})

	t.Run("deterministic across repeated calls", func(t *testing.T) {
		t.Parallel()

		q := Unified{IP: "203.0.113.7", Port: "443", Domain: "example.com", Title: "admin"}
		first := Translate(q, DialectFOFA)
		for range 5 {
			if got := Translate(q, DialectFOFA); got.Query != first.Query {
				t.Fatalf("translation not deterministic: %q vs %q", got.Query, first.Query)
			}
		}
	})

	t.Run("raw terms pass through only to tolerant dialects", func(t *testing.T) {
		t.Parallel()

		q := Unified{Port: "80", Raw: []string{`cert="acme"`}}

		fofa := Translate(q, DialectFOFA)
		if !strings.Contains(fofa.Query, `cert="acme"`) || len(fofa.Warnings) != 0 {
			t.Errorf("tolerant dialect should pass raw terms: %+v", fofa)
		}

		hunter := Translate(q, DialectHunter)
		if strings.Contains(hunter.Query, "cert") {
			t.Errorf("intolerant dialect leaked a raw term: %q", hunter.Query)
		}
		if len(hunter.Warnings) != 1 {
			t.Errorf("expected a drop warning, got %v", hunter.Warnings)
		}
	})

	t.Run("zero query renders empty", func(t *testing.T) {
		t.Parallel()

		if got := Translate(Unified{}, DialectQuake); got.Query != "" {
			t.Errorf("expected empty query, got %q", got.Query)
		}
	})
}
