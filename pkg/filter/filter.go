// Package filter decides which URLs are admitted into a crawl based on a
// configured domain allow-list.
package filter

import (
	"net/url"
	"strings"
)

// DomainFilter is a pure admission predicate over a domain allow-list.
// An empty allow-list admits every URL. Read-only after construction, so
// it is safe for concurrent use without synchronization.
type DomainFilter struct {
	domains         []string // lowercased allow-list entries
	matchSubdomains bool     // suffix match instead of exact match
}

// New creates a DomainFilter. With matchSubdomains set, an entry like
// "example.com" also admits "docs.example.com"; otherwise hosts must
// match an entry exactly. Comparison is case-insensitive either way.
func New(allowedDomains []string, matchSubdomains bool) *DomainFilter {
	domains := make([]string, 0, len(allowedDomains))
	for _, d := range allowedDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			domains = append(domains, d)
		}
	}
	return &DomainFilter{domains: domains, matchSubdomains: matchSubdomains}
}

// Admit reports whether the URL's host is allowed by the filter.
func (f *DomainFilter) Admit(u *url.URL) bool {
	if len(f.domains) == 0 {
		return true
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	for _, d := range f.domains {
		if host == d {
			return true
		}
		if f.matchSubdomains && strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// Unrestricted reports whether the filter admits every URL.
func (f *DomainFilter) Unrestricted() bool {
	return len(f.domains) == 0
}
