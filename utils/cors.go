package utils

import (
	"net"
	"net/url"
	"strings"
)

// OriginPolicy decides which browser origins may call the API. Configured
// origins are always allowed; otherwise only local and private-network
// origins are.
type OriginPolicy struct {
	explicit map[string]bool
}

// NewOriginPolicy trusts each non-empty origin in addition to local ones.
func NewOriginPolicy(origins ...string) *OriginPolicy {
	p := &OriginPolicy{explicit: make(map[string]bool)}
	for _, o := range origins {
		if o = normalizeOrigin(o); o != "" {
			p.explicit[o] = true
		}
	}
	return p
}

// Allows reports whether origin may receive CORS headers.
func (p *OriginPolicy) Allows(origin string) bool {
	if p != nil && p.explicit[normalizeOrigin(origin)] {
		return true
	}
	return IsAllowedOrigin(origin)
}

func normalizeOrigin(origin string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
}

// IsAllowedOrigin accepts localhost, .local names, single-label LAN names and
// private/loopback/link-local IPs. Public origins are rejected.
func IsAllowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}
	hostname := parsed.Hostname()

	switch {
	case hostname == "localhost":
		return true
	case strings.HasSuffix(hostname, ".local"):
		return true
	}
	if ip := net.ParseIP(hostname); ip != nil {
		return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast()
	}
	return !strings.Contains(hostname, ".")
}
