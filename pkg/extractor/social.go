package extractor

import (
	"net/url"
	"strings"
)

type socialPlatform struct {
	name    string
	domains []string
}

// socialPlatforms is checked in order; an anchor counts for at most one platform.
var socialPlatforms = []socialPlatform{
	{name: "linkedin", domains: []string{"linkedin.com"}},
	{name: "twitter", domains: []string{"twitter.com", "x.com"}},
	{name: "youtube", domains: []string{"youtube.com"}},
	{name: "instagram", domains: []string{"instagram.com"}},
	{name: "github", domains: []string{"github.com"}},
}

// SocialPlatforms lists the platform keys that can appear in social links.
func SocialPlatforms() []string {
	names := make([]string, len(socialPlatforms))
	for i, p := range socialPlatforms {
		names[i] = p.name
	}
	return names
}

// matchSocial records link under its platform unless that platform already
// has an earlier link. Matching is done on the host so that e.g. netflix.com
// is not mistaken for x.com.
func matchSocial(found map[string]string, link *url.URL) {
	host := strings.TrimPrefix(strings.ToLower(link.Hostname()), "www.")
	if host == "" {
		return
	}
	for _, p := range socialPlatforms {
		if _, done := found[p.name]; done {
			continue
		}
		for _, d := range p.domains {
			if host == d || strings.HasSuffix(host, "."+d) {
				found[p.name] = link.String()
				return
			}
		}
	}
}
