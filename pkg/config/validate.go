package config

import (
	"fmt"
	"time"

	"webspider/pkg/utils"
)

// Validate checks Config fields and applies defaults for fields left at
// their zero value. Explicitly negative capacities are a fatal error
// surfaced before any fetch begins; warnings cover the recoverable
// oddities. Modifies the receiver in place to apply defaults.
func (c *Config) Validate() (warnings []string, err error) {
	// MaxWorkers
	if c.MaxWorkers < 0 {
		return nil, fmt.Errorf("%w: max_workers must be > 0, got %d", utils.ErrConfigValidation, c.MaxWorkers)
	}
	if c.MaxWorkers == 0 {
		c.MaxWorkers = DefaultMaxWorkers
	}

	// WorkersPerDomain
	if c.WorkersPerDomain < 0 {
		return nil, fmt.Errorf("%w: workers_per_domain must be > 0, got %d", utils.ErrConfigValidation, c.WorkersPerDomain)
	}
	if c.WorkersPerDomain == 0 {
		c.WorkersPerDomain = DefaultWorkersPerDomain
	}
	if c.WorkersPerDomain > c.MaxWorkers {
		warnings = append(warnings, fmt.Sprintf(
			"workers_per_domain (%d) exceeds max_workers (%d); the global limit governs",
			c.WorkersPerDomain, c.MaxWorkers))
	}

	// PerDomainRPS
	if c.PerDomainRPS < 0 {
		warnings = append(warnings, "per_domain_rps cannot be negative, disabling politeness delay")
		c.PerDomainRPS = 0
	}

	// CrawlTimeout
	if c.CrawlTimeout < 0 {
		warnings = append(warnings, "crawl_timeout cannot be negative, disabling timeout")
		c.CrawlTimeout = 0
	}

	// ProgressInterval
	if c.ProgressInterval <= 0 {
		c.ProgressInterval = time.Minute
	}

	// UserAgent
	if c.UserAgent == "" {
		c.UserAgent = "webspider/1.0"
	}

	// MaxBodySizeBytes
	if c.MaxBodySizeBytes < 0 {
		warnings = append(warnings, "max_body_size_bytes cannot be negative, applying default")
		c.MaxBodySizeBytes = 0
	}
	if c.MaxBodySizeBytes == 0 {
		c.MaxBodySizeBytes = 10 << 20 // 10MB
	}

	c.validateHTTPClientSettings()

	return warnings, nil
}

// validateHTTPClientSettings applies defaults to HTTP client settings.
func (c *Config) validateHTTPClientSettings() {
	h := &c.HTTPClientSettings
	if h.Timeout <= 0 {
		h.Timeout = 45 * time.Second
	}
	if h.MaxIdleConns <= 0 {
		h.MaxIdleConns = 100
	}
	if h.MaxIdleConnsPerHost <= 0 {
		h.MaxIdleConnsPerHost = 2
	}
	if h.IdleConnTimeout <= 0 {
		h.IdleConnTimeout = 90 * time.Second
	}
	if h.TLSHandshakeTimeout <= 0 {
		h.TLSHandshakeTimeout = 10 * time.Second
	}
	if h.DialerTimeout <= 0 {
		h.DialerTimeout = 15 * time.Second
	}
	if h.DialerKeepAlive <= 0 {
		h.DialerKeepAlive = 30 * time.Second
	}
}
