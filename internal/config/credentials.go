package config

import (
	"time"

	"github.com/reconkit/orgscan/internal/session"
)

// Well-known service names used as keys in the credentials file.
// The registry and CRM scrapers authenticate with browser cookies;
// the asset-search backends authenticate with API keys.
const (
	ServiceRegistry = "registry"
	ServiceCRM      = "crm"
	ServiceFOFA     = "fofa"
	ServiceHunter   = "hunter"
	ServiceQuake    = "quake"
)

// ServiceCredential is one service block in the credentials file.
// Cookie-based services fill Cookie; API-based services fill APIKey
// (and Email where the backend requires it).
type ServiceCredential struct {
	// APIKey authenticates API-style backends.
	APIKey string `yaml:"api_key,omitempty"`

	// Email accompanies the API key for backends that require it.
	Email string `yaml:"email,omitempty"`

	// Cookie is the raw Cookie header copied from a logged-in browser
	// session, e.g. "BDUSS=...; BAIDUID=...".
	Cookie string `yaml:"cookie,omitempty"`

	// LastUpdated is when the credential was last refreshed. Informational;
	// cookies expire server-side and a stale timestamp is the first thing
	// to check when a run reports blocked requests.
	LastUpdated time.Time `yaml:"last_updated,omitempty"`
}

// IsZero reports whether the block carries no usable credential.
func (s ServiceCredential) IsZero() bool {
	return s.APIKey == "" && s.Cookie == ""
}

// File is the on-disk YAML credentials document.
//
// Example:
//
//	services:
//	  registry:
//	    cookie: "BDUSS=...; BAIDUID=..."
//	    last_updated: 2026-08-01T09:00:00Z
//	  fofa:
//	    email: user@example.com
//	    api_key: "0123456789abcdef"
type File struct {
	// Services maps service names to credential blocks.
	Services map[string]ServiceCredential `yaml:"services"`
}

// Service returns the credential block for the named service and
// whether a usable block exists.
func (f *File) Service(name string) (ServiceCredential, bool) {
	if f == nil || f.Services == nil {
		return ServiceCredential{}, false
	}
	s, ok := f.Services[name]
	if !ok || s.IsZero() {
		return ServiceCredential{}, false
	}
	return s, true
}

// Store converts the loaded file into a session credential store.
// Services with empty blocks are skipped so the store's miss behavior
// applies to them.
func (f *File) Store() *session.Store {
	creds := make(map[string]session.Credential)
	if f != nil {
		for name, s := range f.Services {
			if s.IsZero() {
				continue
			}
			creds[name] = session.Credential{
				APIKey:      s.APIKey,
				Email:       s.Email,
				Cookies:     session.ParseCookies(s.Cookie),
				LastUpdated: s.LastUpdated,
			}
		}
	}
	return session.NewStore(creds)
}

// DefaultFile returns a skeleton credentials file with every known
// service listed and empty. `orgscan init` writes this for the user to
// fill in.
func DefaultFile() *File {
	return &File{
		Services: map[string]ServiceCredential{
			ServiceRegistry: {},
			ServiceCRM:      {},
			ServiceFOFA:     {},
			ServiceHunter:   {},
			ServiceQuake:    {},
		},
	}
}
