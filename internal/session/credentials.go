package session

import (
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrNoCredentials is returned when a service has no usable credential
// bundle. Callers surface this as a configuration error so the user can
// be prompted to refresh credentials rather than burning retry budget.
var ErrNoCredentials = errors.New("no credentials configured for service")

// Cookies is an HTTP cookie set parsed from a "name=value; name2=value2"
// string. Insertion order is preserved so serialization round-trips.
type Cookies struct {
	names  []string
	values map[string]string
}

// ParseCookies parses a raw cookie header string. Fragments without an
// equals sign are dropped, matching browser copy-paste artifacts like
// trailing semicolons. Only the first '=' splits name from value because
// cookie values may themselves contain '='.
func ParseCookies(raw string) Cookies {
	c := Cookies{values: make(map[string]string)}
	for _, item := range strings.Split(raw, ";") {
		item = strings.TrimSpace(item)
		name, value, ok := strings.Cut(item, "=")
		if !ok || name == "" {
			continue
		}
		if _, exists := c.values[name]; !exists {
			c.names = append(c.names, name)
		}
		c.values[name] = value
	}
	return c
}

// Get returns the value of the named cookie.
func (c Cookies) Get(name string) string {
	return c.values[name]
}

// Len returns the number of cookies.
func (c Cookies) Len() int {
	return len(c.names)
}

// IsZero reports whether the set is empty.
func (c Cookies) IsZero() bool {
	return len(c.names) == 0
}

// String serializes the set back to "name=value; name2=value2" form,
// preserving the original parse order.
func (c Cookies) String() string {
	var b strings.Builder
	for i, name := range c.names {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(c.values[name])
	}
	return b.String()
}

// Credential is one service's credential bundle: either an API key or a
// parsed cookie set, plus the time it was last refreshed.
type Credential struct {
	// APIKey authenticates API-style backends.
	APIKey string

	// Email accompanies the API key for backends that require it.
	Email string

	// Cookies authenticates scraped, browser-session services.
	Cookies Cookies

	// LastUpdated is when the credential was last refreshed.
	LastUpdated time.Time
}

// IsZero reports whether the bundle carries no usable credential.
func (c Credential) IsZero() bool {
	return c.APIKey == "" && c.Cookies.IsZero()
}

// Store maps service names to credential bundles. It is shared and read
// by every outbound call; Refresh is the only write path. The mutex makes
// that contract safe even for future parallel callers.
type Store struct {
	mu    sync.RWMutex
	creds map[string]Credential
}

// NewStore creates a Store from the given initial bundles.
func NewStore(creds map[string]Credential) *Store {
	s := &Store{creds: make(map[string]Credential, len(creds))}
	for name, c := range creds {
		s.creds[name] = c
	}
	return s
}

// Get returns the credential bundle for the named service.
// It returns ErrNoCredentials when the service has no usable bundle.
func (s *Store) Get(service string) (Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.creds[service]
	if !ok || c.IsZero() {
		return Credential{}, ErrNoCredentials
	}
	return c, nil
}

// Has reports whether the named service has a usable credential bundle.
func (s *Store) Has(service string) bool {
	_, err := s.Get(service)
	return err == nil
}

// RefreshCookies replaces the named service's cookie set from a raw
// cookie string and stamps the update time. This is the explicit refresh
// operation; nothing else mutates the store.
func (s *Store) RefreshCookies(service, raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.creds[service]
	c.Cookies = ParseCookies(raw)
	c.LastUpdated = time.Now()
	s.creds[service] = c
}

// RefreshAPIKey replaces the named service's API key and stamps the
// update time.
func (s *Store) RefreshAPIKey(service, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.creds[service]
	c.APIKey = key
	c.LastUpdated = time.Now()
	s.creds[service] = c
}
