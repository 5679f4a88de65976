package extractor

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Scope decides which URLs belong to the crawled site. By default only the
// seed's exact host (port included) is in scope; with subdomains enabled
// every host sharing the seed's registrable domain is.
type Scope struct {
	host       string
	rootDomain string
}

// NewScope builds the scope for seed.
func NewScope(seed *url.URL, includeSubdomains bool) *Scope {
	s := &Scope{host: strings.ToLower(seed.Host)}
	hostname := strings.ToLower(seed.Hostname())
	// IP addresses and single-label hosts have no registrable domain
	if includeSubdomains && net.ParseIP(hostname) == nil {
		if root, err := publicsuffix.EffectiveTLDPlusOne(hostname); err == nil {
			s.rootDomain = root
		}
	}
	return s
}

// Contains reports whether u is inside the crawl scope.
func (s *Scope) Contains(u *url.URL) bool {
	if u == nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Host)
	if host == s.host {
		return true
	}
	if s.rootDomain == "" {
		return false
	}
	root, err := publicsuffix.EffectiveTLDPlusOne(strings.ToLower(u.Hostname()))
	return err == nil && root == s.rootDomain
}

// ContainsRaw parses raw and reports whether it is in scope.
func (s *Scope) ContainsRaw(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return s.Contains(u)
}
