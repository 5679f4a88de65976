package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var space = regexp.MustCompile(`\s+`)

// CleanText collapses runs of whitespace into single spaces and trims the result
func CleanText(text string) string {
	return strings.TrimSpace(space.ReplaceAllString(text, " "))
}

// TruncateText keeps the first maxRunes characters of text, trims them and
// appends an ellipsis. The ellipsis is always added, even when text is short.
func TruncateText(text string, maxRunes int) string {
	runes := []rune(text)
	if len(runes) > maxRunes {
		runes = runes[:maxRunes]
	}
	return strings.TrimSpace(string(runes)) + "..."
}

// ContainsAnyFold reports whether s contains any of terms, ignoring case.
// Terms are expected in lower case.
func ContainsAnyFold(s string, terms []string) bool {
	lower := strings.ToLower(s)
	for _, t := range terms {
		if t != "" && strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

// NormalizeURL returns the canonical form used for deduplication: scheme and
// host lower-cased, fragment dropped and an empty path turned into "/".
func NormalizeURL(u *url.URL) string {
	c := *u
	c.Scheme = strings.ToLower(c.Scheme)
	c.Host = strings.ToLower(c.Host)
	c.Fragment = ""
	c.RawFragment = ""
	if c.Path == "" && c.Opaque == "" {
		c.Path = "/"
	}
	return c.String()
}

// ParseHTTPURL parses raw and checks it is an absolute http(s) URL with a host
func ParseHTTPURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid URL %q: missing host", raw)
	}
	return u, nil
}

// BaseURL returns scheme://host of u.
func BaseURL(u *url.URL) string {
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)
}

// JoinPath resolves path against base the way a browser resolves an
// absolute-path reference.
func JoinPath(base *url.URL, path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return NormalizeURL(base)
	}
	return NormalizeURL(base.ResolveReference(ref))
}
