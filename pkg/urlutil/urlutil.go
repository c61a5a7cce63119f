// Package urlutil implements the deterministic URL identity rules the
// rest of the crawler relies on: every URL that ever reaches the
// frontier, the caches, or an output file has gone through Normalize.
package urlutil

import (
	"net/url"
	"sort"
	"strings"
)

// SeedPolicy captures the scheme and "preferred port" preferences of a
// seed URL, fixed at startup and consulted by every later Normalize call.
type SeedPolicy struct {
	Scheme string
	// Port is non-empty only when the seed itself named a non-default
	// port; Normalize never synthesizes a default port on its own.
	Port string
}

// NewSeedPolicy derives a SeedPolicy from the first seed URL.
func NewSeedPolicy(seed url.URL) SeedPolicy {
	port := seed.Port()
	if port == defaultPort(seed.Scheme) {
		port = ""
	}
	return SeedPolicy{Scheme: seed.Scheme, Port: port}
}

func defaultPort(scheme string) string {
	switch scheme {
	case "http":
		return "80"
	case "https":
		return "443"
	default:
		return ""
	}
}

// IsHTTPScheme reports whether scheme is "http" or "https".
func IsHTTPScheme(scheme string) bool {
	return scheme == "http" || scheme == "https"
}

// Normalize maps an arbitrary string to the canonical URL form described
// in spec §3, or reports failure. Failure covers: unparseable input, a
// scheme other than http/https, and an empty result.
//
// Transformations, applied in order:
//  1. protocol-relative promotion ("//host/path" gets the seed scheme)
//  2. scheme upgrade (http -> https, only if the seed was https)
//  3. port injection (empty port gets the seed's non-default port)
//  4. query parameter sorting, unless preserveQueryOrder is set
//  5. trailing-slash removal from the path, unless the path is exactly "/"
//  6. fragment removal
//
// Hosts are left exactly as parsed: spec §3 requires case-sensitive host
// comparison, so Normalize never lowercases scheme or host.
func Normalize(raw string, policy SeedPolicy, preserveQueryOrder bool) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	if strings.HasPrefix(raw, "//") {
		raw = policy.Scheme + ":" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if !IsHTTPScheme(u.Scheme) {
		return "", false
	}

	if policy.Scheme == "https" && u.Scheme == "http" {
		u.Scheme = "https"
	}

	if u.Port() == "" && policy.Port != "" {
		u.Host = u.Hostname() + ":" + policy.Port
	}

	if !preserveQueryOrder && u.RawQuery != "" {
		u.RawQuery = sortedQuery(u.RawQuery)
	}

	if u.Path != "/" {
		u.Path = strings.TrimRight(u.Path, "/")
		u.RawPath = ""
	}

	u.Fragment = ""
	u.RawFragment = ""

	out := u.String()
	if out == "" {
		return "", false
	}
	return out, true
}

// sortedQuery alphabetically reorders "k=v" pairs in a raw query string,
// preserving relative order among pairs that compare equal.
func sortedQuery(rawQuery string) string {
	parts := strings.Split(rawQuery, "&")
	sort.SliceStable(parts, func(i, j int) bool { return parts[i] < parts[j] })
	return strings.Join(parts, "&")
}
