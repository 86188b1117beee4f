// Package allowlist decides whether a request comes from a domain a tenant
// has registered.
package allowlist

import (
	"net"
	"net/url"
	"strings"
)

// Resolve picks the request's claimed domain: Origin first, then Host, then
// the Referer's hostname. The result is normalized and may be empty.
func Resolve(origin, host, referer string) string {
	if candidate := normalizeURLHost(origin); candidate != "" {
		return candidate
	}
	if candidate := normalizeHost(host); candidate != "" {
		return candidate
	}
	return normalizeURLHost(referer)
}

// IsAllowed reports whether the resolved request domain matches any pattern.
// An empty pattern list denies everything.
func IsAllowed(origin, host, referer string, patterns []string) bool {
	return Matches(Resolve(origin, host, referer), patterns)
}

// Matches checks one normalized host against exact and "*.suffix" patterns.
// "*.example.com" matches example.com and any subdomain of it.
func Matches(candidate string, patterns []string) bool {
	candidate = normalizeHost(candidate)
	if candidate == "" {
		return false
	}
	for _, raw := range patterns {
		pattern := strings.ToLower(strings.TrimSpace(raw))
		if pattern == "" {
			continue
		}
		if suffix, ok := strings.CutPrefix(pattern, "*."); ok {
			suffix = strings.TrimSuffix(suffix, ".")
			if suffix == "" {
				continue
			}
			if candidate == suffix || strings.HasSuffix(candidate, "."+suffix) {
				return true
			}
			continue
		}
		if candidate == normalizeHost(pattern) {
			return true
		}
	}
	return false
}

func normalizeURLHost(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		return normalizeHost(raw)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return normalizeHost(parsed.Hostname())
}

func normalizeHost(raw string) string {
	host := strings.ToLower(strings.TrimSpace(raw))
	if host == "" {
		return ""
	}
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	return strings.TrimSuffix(host, ".")
}
