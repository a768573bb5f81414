package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values mirror the pacing and limits the collection engine was
// tuned with; most can be overridden via CLI flags.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "orgscan"

	// DefaultTimeout is the per-request HTTP timeout. Registry pages and
	// asset-search APIs both answer well within this; a longer timeout
	// only delays the retry loop when a host silently drops us.
	DefaultTimeout = 30 * time.Second

	// DefaultSearchLimit caps how many entries each asset-search backend
	// returns per query. All three backends accept a page size up to at
	// least 100 on free-tier keys.
	DefaultSearchLimit = 100

	// DefaultTargetDelayMin and DefaultTargetDelayMax bound the
	// randomized courtesy delay between targets in a batch run.
	DefaultTargetDelayMin = 1 * time.Second
	DefaultTargetDelayMax = 3 * time.Second

	// DefaultTorStartupTimeout is the maximum time to wait for the
	// embedded Tor daemon to bootstrap when --tor is used. 3 minutes is
	// typically sufficient, but slow links may need more.
	DefaultTorStartupTimeout = 3 * time.Minute
)

// DefaultBackends lists the asset-search backends queried when the user
// does not narrow the set. Order is the dispatch order.
var DefaultBackends = []string{"fofa", "hunter", "quake"}

// knownBackends is the set of valid --backend values.
var knownBackends = map[string]bool{
	"fofa":   true,
	"hunter": true,
	"quake":  true,
}

// Config holds all configuration options for a collection or search run.
// This struct is designed to be populated from CLI flags and passed
// through the application via dependency injection rather than global
// state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., SearchConfig, ReportConfig) for simplicity. The number of
// options is manageable, and nesting would add complexity without
// significant benefit.
type Config struct {
	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the credentials/config file.
	// If empty, the tool searches for .orgscan in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// Credentials holds the per-service credential bundles loaded from
	// the config file. Populated by LoadConfigFile.
	Credentials *File

	// ProxyAddress routes all engine traffic through a SOCKS5 proxy in
	// "host:port" format. Empty means direct connections.
	// Mutually exclusive with UseTor.
	ProxyAddress string

	// UseTor starts an embedded Tor daemon and routes all engine traffic
	// through it. Mutually exclusive with ProxyAddress.
	//
	// Note: The embedded Tor daemon takes 1-3 minutes to bootstrap on
	// first start.
	UseTor bool

	// TorStartupTimeout is the maximum time to wait for the embedded Tor
	// daemon to start and bootstrap. Only used when UseTor is true.
	TorStartupTimeout time.Duration

	// Timeout is the connection timeout for each HTTP request.
	// This applies to individual requests, not the overall run duration.
	Timeout time.Duration

	// Targets is the list of company names to collect. Populated from
	// positional arguments or a target list file.
	Targets []string

	// Query is the raw asset-search query for search runs.
	Query string

	// Backends is the list of asset-search backends to dispatch to.
	// Defaults to all known backends in dispatch order.
	Backends []string

	// SearchLimit is the maximum number of entries requested from each
	// backend per query. Must be positive.
	SearchLimit int

	// TargetDelayMin and TargetDelayMax bound the randomized courtesy
	// delay between targets in a batch run.
	TargetDelayMin time.Duration
	TargetDelayMax time.Duration

	// JSONReport enables JSON report output instead of human-readable format.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string

	// DBDir is the directory path for storing the SQLite history database.
	// When set, run results are saved for later `orgscan history` lookups.
	// Defaults to the XDG data directory.
	DBDir string

	// SaveToDB indicates whether to save run results to the database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use
// cases. Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, search
// limit). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Timeout:           DefaultTimeout,
		SearchLimit:       DefaultSearchLimit,
		Backends:          append([]string(nil), DefaultBackends...),
		TargetDelayMin:    DefaultTargetDelayMin,
		TargetDelayMax:    DefaultTargetDelayMax,
		TorStartupTimeout: DefaultTorStartupTimeout,
	}
}

// XDGDataDir returns the XDG data directory for orgscan.
// On Linux: ~/.local/share/orgscan
// On macOS: ~/Library/Application Support/orgscan
// On Windows: %LOCALAPPDATA%\orgscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for orgscan.
// On Linux: ~/.config/orgscan
// On macOS: ~/Library/Application Support/orgscan
// On Windows: %APPDATA%\orgscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the rules shared by every run kind.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any network traffic.
//
// We chose to return the first error found rather than collecting all
// errors because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	// Timeout must be positive; zero timeout would cause immediate failures
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	// Each backend requests at most SearchLimit entries; zero would mean
	// empty result pages on every backend
	if c.SearchLimit <= 0 {
		return ErrInvalidLimit
	}

	// JSONReport and MarkdownReport are mutually exclusive
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	// A SOCKS5 proxy and the embedded Tor daemon cannot both carry the
	// traffic
	if c.ProxyAddress != "" && c.UseTor {
		return ErrConflictingTransports
	}

	// The delay band must be a valid interval
	if c.TargetDelayMin < 0 || c.TargetDelayMax < c.TargetDelayMin {
		return ErrInvalidTargetDelay
	}

	for _, name := range c.Backends {
		if !knownBackends[name] {
			return ErrUnknownBackend
		}
	}

	return nil
}

// ValidateEnterprise checks the configuration for an enterprise batch run.
func (c *Config) ValidateEnterprise() error {
	// We must have at least one company to collect
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	return c.Validate()
}

// ValidateSearch checks the configuration for an asset-search run.
func (c *Config) ValidateSearch() error {
	if c.Query == "" {
		return ErrNoQuery
	}
	return c.Validate()
}
