package classify

import (
	"net/http"
	"strings"

	"golang.org/x/net/html"
)

// Result is the verdict for a single HTTP response.
type Result int

const (
	// ResultOK means the response looks like genuine payload.
	ResultOK Result = iota
	// ResultBlocked means the target served a countermeasure page:
	// a captcha, rate-limit notice, or access-denied interstitial.
	ResultBlocked
	// ResultHardError means a protocol-level failure that blocking
	// countermeasures do not explain, such as a plain 404 or 500.
	ResultHardError
)

// String returns the verdict name for logging.
func (r Result) String() string {
	switch r {
	case ResultOK:
		return "ok"
	case ResultBlocked:
		return "blocked"
	case ResultHardError:
		return "hard_error"
	default:
		return "unknown"
	}
}

// DefaultMinBodyLength is the minimum trimmed body length before marker
// matching applies. Shorter bodies are too ambiguous to call blocked:
// an empty or tiny response is treated as a payload problem instead.
const DefaultMinBodyLength = 100

// DefaultMarkers are substrings that identify countermeasure pages.
// Matching is case-insensitive.
var DefaultMarkers = []string{
	"验证码", "captcha", "人机验证", "安全验证",
	"访问过于频繁", "请稍后再试", "系统繁忙",
	"安全检查", "security check", "访问受限", "访问异常",
	"请求频率过高", "请求次数超限", "ip限制", "ip被封",
	"请输入验证码", "滑动验证", "点击验证",
	"access denied", "permission denied",
}

// errorTitlePrefixes flag pages whose <title> opens with an HTTP error
// code, the usual shape of a reverse-proxy block page.
var errorTitlePrefixes = []string{"403", "404", "500", "502", "503"}

// Classifier applies the verdict rules. The zero value is not usable;
// construct with New.
type Classifier struct {
	markers    []string
	minBodyLen int
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithMarkers replaces the countermeasure marker list. Markers are
// matched case-insensitively.
func WithMarkers(markers []string) Option {
	return func(c *Classifier) {
		if len(markers) > 0 {
			c.markers = markers
		}
	}
}

// WithMinBodyLength sets the minimum body length for marker matching.
func WithMinBodyLength(n int) Option {
	return func(c *Classifier) {
		if n >= 0 {
			c.minBodyLen = n
		}
	}
}

// New creates a Classifier with the given options.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		markers:    DefaultMarkers,
		minBodyLen: DefaultMinBodyLength,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns the verdict for a response. Status codes that are
// themselves blocking signals win over body inspection; other non-2xx
// codes are hard errors. For 2xx responses the body is inspected for
// countermeasure markers and error titles, but only when it is long
// enough to judge.
func (c *Classifier) Classify(status int, body string) Result {
	switch status {
	case http.StatusForbidden, http.StatusTooManyRequests, http.StatusPreconditionRequired:
		return ResultBlocked
	}
	if status < 200 || status >= 300 {
		return ResultHardError
	}

	trimmed := strings.TrimSpace(body)
	if len(trimmed) < c.minBodyLen {
		return ResultOK
	}

	lower := strings.ToLower(trimmed)
	for _, marker := range c.markers {
		if strings.Contains(lower, strings.ToLower(marker)) {
			return ResultBlocked
		}
	}

	if isErrorTitle(pageTitle(trimmed)) {
		return ResultBlocked
	}
	return ResultOK
}

// pageTitle returns the text of the first <title> element, or "" when
// the body is not HTML or carries no title.
func pageTitle(body string) string {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return ""
	}

	var title string
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				title = n.FirstChild.Data
			}
			return true
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if walk(child) {
				return true
			}
		}
		return false
	}
	walk(doc)
	return strings.TrimSpace(title)
}

// isErrorTitle reports whether a page title announces an HTTP error.
func isErrorTitle(title string) bool {
	if title == "" {
		return false
	}
	lower := strings.ToLower(title)
	for _, prefix := range errorTitlePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
