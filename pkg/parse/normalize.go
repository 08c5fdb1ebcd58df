package parse

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"webspider/pkg/utils"
)

// NormalizeURL standardizes a URL for deduplication and comparison.
// It lowercases the scheme and host, removes default ports (80 for http,
// 443 for https), removes trailing slashes from paths (unless root "/"),
// ensures an empty path becomes "/", and removes the fragment. The query
// string is kept: two URLs differing only in query are distinct tasks.
// Does not modify the input *url.URL.
func NormalizeURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	// Work on a copy
	normalized := *u

	normalized.Scheme = strings.ToLower(normalized.Scheme)
	normalized.Host = strings.ToLower(normalized.Host)

	// Remove default ports
	host, port, err := net.SplitHostPort(normalized.Host)
	if err == nil { // Host included a port
		if (normalized.Scheme == "http" && port == "80") ||
			(normalized.Scheme == "https" && port == "443") {
			normalized.Host = host
		}
	}

	// Handle path normalization
	if normalized.Path == "" {
		normalized.Path = "/"
	} else if len(normalized.Path) > 1 && strings.HasSuffix(normalized.Path, "/") {
		normalized.Path = normalized.Path[:len(normalized.Path)-1]
	}

	normalized.Fragment = ""
	normalized.RawFragment = ""

	return normalized.String()
}

// ParseTaskURL parses a raw URL string and verifies it is absolute with a
// crawlable scheme and a host. Returns the parsed URL, its normalized
// string form, and the lowercased host used as the throttling key.
func ParseTaskURL(rawURL string) (parsed *url.URL, normalized string, domain string, err error) {
	parsed, parseErr := url.Parse(rawURL)
	if parseErr != nil {
		return nil, "", "", fmt.Errorf("%w: parsing '%s': %w", utils.ErrInvalidURL, rawURL, parseErr)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, "", "", fmt.Errorf("%w: '%s' has unsupported scheme '%s'", utils.ErrInvalidURL, rawURL, parsed.Scheme)
	}
	if parsed.Hostname() == "" {
		return nil, "", "", fmt.Errorf("%w: '%s' missing host", utils.ErrInvalidURL, rawURL)
	}
	return parsed, NormalizeURL(parsed), strings.ToLower(parsed.Hostname()), nil
}

// Resolve resolves a relative or absolute reference against a base URL
// per standard URL-resolution rules.
func Resolve(base *url.URL, ref string) (string, error) {
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("%w: resolving '%s': %w", utils.ErrInvalidURL, ref, err)
	}
	return base.ResolveReference(refURL).String(), nil
}
