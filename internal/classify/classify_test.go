package classify

import (
	"strings"
	"testing"
)

// pad grows a body past the marker-matching minimum without adding any
// suspicious content.
func pad(body string) string {
	return body + strings.Repeat(" lorem ipsum", 20)
}

// TestClassify tests the verdict rules on status codes and bodies.
func TestClassify(t *testing.T) {
	t.Parallel()

	c := New()

	t.Run("blocking status codes win over the body", func(t *testing.T) {
		t.Parallel()

		for _, status := range []int{403, 429} {
			if got := c.Classify(status, pad("<html>anything</html>")); got != ResultBlocked {
				t.Errorf("status %d: expected blocked, got %v", status, got)
			}
		}
	})

	t.Run("other non-2xx codes are hard errors", func(t *testing.T) {
		t.Parallel()

		for _, status := range []int{301, 404, 500, 502} {
			if got := c.Classify(status, ""); got != ResultHardError {
				t.Errorf("status %d: expected hard error, got %v", status, got)
			}
		}
	})

	t.Run("clean payload passes", func(t *testing.T) {
		t.Parallel()

		body := pad(`{"status":0,"data":{"resultList":[{"pid":"1"}]}}`)
		if got := c.Classify(200, body); got != ResultOK {
			t.Errorf("expected ok, got %v", got)
		}
	})

	t.Run("countermeasure marker in a long body blocks", func(t *testing.T) {
		t.Parallel()

		body := pad("<html><body>请输入验证码后继续访问</body></html>")
		if got := c.Classify(200, body); got != ResultBlocked {
			t.Errorf("expected blocked, got %v", got)
		}
	})

	t.Run("marker matching is case-insensitive", func(t *testing.T) {
		t.Parallel()

		body := pad("<html><body>Access Denied by policy</body></html>")
		if got := c.Classify(200, body); got != ResultBlocked {
			t.Errorf("expected blocked, got %v", got)
		}
	})

	t.Run("short bodies never classify as blocked", func(t *testing.T) {
		t.Parallel()

		if got := c.Classify(200, "验证码"); got != ResultOK {
			t.Errorf("expected ok for short body, got %v", got)
		}
	})

	t.Run("error page title blocks", func(t *testing.T) {
		t.Parallel()

		body := pad("<html><head><title>403 Forbidden</title></head><body>nothing here</body></html>")
		if got := c.Classify(200, body); got != ResultBlocked {
			t.Errorf("expected blocked, got %v", got)
		}
	})

	t.Run("ordinary title passes", func(t *testing.T) {
		t.Parallel()

		body := pad("<html><head><title>企业信息查询</title></head><body>result content</body></html>")
		if got := c.Classify(200, body); got != ResultOK {
			t.Errorf("expected ok, got %v", got)
		}
	})
}

// TestClassifierOptions tests marker and threshold injection.
func TestClassifierOptions(t *testing.T) {
	t.Parallel()

	t.Run("custom markers replace the defaults", func(t *testing.T) {
		t.Parallel()

		c := New(WithMarkers([]string{"maintenance window"}))

		body := pad("<html><body>scheduled maintenance window</body></html>")
		if got := c.Classify(200, body); got != ResultBlocked {
			t.Errorf("expected blocked on custom marker, got %v", got)
		}
		if got := c.Classify(200, pad("请输入验证码")); got != ResultOK {
			t.Errorf("expected default marker to be inert, got %v", got)
		}
	})

	t.Run("custom minimum length", func(t *testing.T) {
		t.Parallel()

		c := New(WithMinBodyLength(5))
		if got := c.Classify(200, "请输入验证码"); got != ResultBlocked {
			t.Errorf("expected blocked with lowered threshold, got %v", got)
		}
	})
}

// TestPageTitle tests title recovery from HTML bodies.
func TestPageTitle(t *testing.T) {
	t.Parallel()

	t.Run("recovers the title text", func(t *testing.T) {
		t.Parallel()

		got := pageTitle("<html><head><title> Hello </title></head></html>")
		if got != "Hello" {
			t.Errorf("expected Hello, got %q", got)
		}
	})

	t.Run("non-html body has no title", func(t *testing.T) {
		t.Parallel()

		if got := pageTitle(`{"status":0}`); got != "" {
			t.Errorf("expected empty title, got %q", got)
		}
	})
}
