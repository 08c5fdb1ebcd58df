package config

import "time"

// Default capacities applied by Validate when the corresponding field is
// left at its zero value.
const (
	DefaultMaxWorkers       = 20
	DefaultWorkersPerDomain = 5
)

// Config holds the per-crawl configuration. All fields are read-only
// after the run starts.
type Config struct {
	// MaxWorkers is the global permit pool capacity: the maximum number
	// of concurrent in-flight fetch+handle cycles across all domains.
	MaxWorkers int `yaml:"max_workers"`

	// WorkersPerDomain is the per-domain permit pool capacity.
	WorkersPerDomain int `yaml:"workers_per_domain"`

	// AllowedDomains is the admission allow-list. Empty means
	// unrestricted.
	AllowedDomains []string `yaml:"allowed_domains,omitempty"`

	// MatchSubdomains switches the allow-list to suffix matching, so
	// "example.com" also admits "docs.example.com".
	MatchSubdomains bool `yaml:"match_subdomains,omitempty"`

	// UnfilteredSeeds exempts seed URLs from the allow-list. Seeds are
	// filtered like any other URL by default.
	UnfilteredSeeds bool `yaml:"unfiltered_seeds,omitempty"`

	// PerDomainRPS caps the request rate to any single domain when
	// positive. Zero disables politeness delays.
	PerDomainRPS float64 `yaml:"per_domain_rps,omitempty"`

	// CrawlTimeout bounds the whole run when positive (applied by the
	// caller via context).
	CrawlTimeout time.Duration `yaml:"crawl_timeout,omitempty"`

	// ProgressInterval is the cadence of periodic progress log lines.
	ProgressInterval time.Duration `yaml:"progress_interval,omitempty"`

	// UserAgent is sent with every request.
	UserAgent string `yaml:"user_agent,omitempty"`

	// MaxBodySizeBytes caps how much of a response body is read. Zero
	// applies the default; fetches exceeding the cap fail terminally.
	MaxBodySizeBytes int64 `yaml:"max_body_size_bytes,omitempty"`

	// HTTPClientSettings tunes the shared HTTP transport.
	HTTPClientSettings HTTPClientConfig `yaml:"http_client_settings,omitempty"`
}

// HTTPClientConfig holds settings for the shared HTTP client.
type HTTPClientConfig struct {
	Timeout             time.Duration `yaml:"timeout,omitempty"`                 // Overall request timeout
	MaxIdleConns        int           `yaml:"max_idle_conns,omitempty"`          // Max total idle connections
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host,omitempty"` // Max idle connections per host
	IdleConnTimeout     time.Duration `yaml:"idle_conn_timeout,omitempty"`       // Timeout for idle connections
	TLSHandshakeTimeout time.Duration `yaml:"tls_handshake_timeout,omitempty"`   // Timeout for TLS handshake
	DialerTimeout       time.Duration `yaml:"dialer_timeout,omitempty"`          // Connection dial timeout
	DialerKeepAlive     time.Duration `yaml:"dialer_keep_alive,omitempty"`       // TCP keep-alive interval
}
