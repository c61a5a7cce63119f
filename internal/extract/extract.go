// Package extract produces outbound references from a fetched document:
// hyperlinks and embed sources from parsed HTML, or a regex scan over raw
// text when the document isn't HTML.
package extract

import (
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Candidate is one outbound reference found in a document, already resolved
// against the base URL but not yet normalized.
type Candidate struct {
	// RawURL is the resolved, pre-normalization absolute URL.
	RawURL url.URL
	// WasHTTP is true when the reference resolved to an http: URL (an
	// explicit http: href, or a relative one on an http base), used by the
	// engine to derive the frontier entry's canFallbackToHttp flag.
	WasHTTP bool
	// WasPortless is true when the resolved URL, before any host rewrite,
	// had no explicit port.
	WasPortless bool
	// IsSitemap routes the candidate to the sitemap channel (rel="sitemap").
	IsSitemap bool
	// CameFromAdditionalHost is true when RawURL's host was rewritten from
	// a configured additional host onto the main host; it gates
	// canFallbackToNoPort per spec.md §4.F.2.
	CameFromAdditionalHost bool
	// Fixed holds a repaired form when the fixer-upper rule fired; the
	// caller must enqueue both RawURL and Fixed in that order.
	Fixed *url.URL
}

var linkAttrSelectors = []string{
	"a[href]", "link[href]",
	"script[src]", "img[src]", "iframe[src]", "video[src]", "audio[src]", "source[src]", "embed[src]",
	"[srcset]",
}

var dataAttrs = []string{"data-url", "data-href", "data-src", "data-link"}

var metaRefreshURL = regexp.MustCompile(`(?i)url=([^;]+)`)

// phoneDigits matches a string made only of digits and common separators,
// with an optional leading "+"; isPhoneNumber additionally requires 7-15
// digits. Together they reject phone-number-shaped text candidates.
var phoneDigits = regexp.MustCompile(`^\+?[\d\s().-]+$`)

func isPhoneNumber(s string) bool {
	if !phoneDigits.MatchString(s) {
		return false
	}
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 7 && digits <= 15
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

var quotedPath = regexp.MustCompile(`"(/[^"\s]{1,2000})"`)
var quotedURL = regexp.MustCompile(`"(https?://[^"\s]{1,2000})"`)
var cssURL = regexp.MustCompile(`url\((['"]?)([^'")\s]{1,2000})\1\)`)

// HostFilter decides which resolved hosts survive and how they map onto
// the main host before normalization.
type HostFilter struct {
	MainHost        string
	AdditionalHosts map[string]struct{}
	SeedScheme      string
}

// Accept reports whether u's host is one of the additional hosts, and if so
// rewrites u onto the main host and seed scheme before normalization per
// spec.md §4.B.5. It returns false for the main host itself, so callers
// check for the main host separately.
func (f HostFilter) Accept(u *url.URL) (cameFromAdditionalHost bool) {
	if u.Hostname() == f.MainHost {
		return false
	}
	if _, ok := f.AdditionalHosts[u.Hostname()]; ok {
		u.Host = f.MainHost
		u.Scheme = f.SeedScheme
		return true
	}
	return false
}

// FromHTML walks a parsed document rooted at base and returns its
// candidates. rel="sitemap" links are returned in the same slice with
// IsSitemap set; they go through the same host filtering as any other
// reference.
func FromHTML(doc *goquery.Document, base *url.URL, followAll bool, filter HostFilter) (pages []Candidate) {
	doc.Find(strings.Join(linkAttrSelectors, ", ")).Each(func(_ int, s *goquery.Selection) {
		rel, _ := s.Attr("rel")
		if !followAll && hasToken(rel, "nofollow") {
			return
		}
		if hasToken(rel, "sitemap") {
			if href, ok := s.Attr("href"); ok {
				if c, ok := resolveCandidate(href, base, filter); ok {
					c.IsSitemap = true
					pages = append(pages, c)
				}
			}
			return
		}

		href, ok := s.Attr("href")
		if !ok {
			href, ok = s.Attr("src")
		}
		if ok {
			if c, ok := resolveCandidate(href, base, filter); ok {
				pages = append(pages, c)
			}
		}

		if srcset, ok := s.Attr("srcset"); ok {
			for _, entry := range strings.Split(srcset, ",") {
				fields := strings.Fields(strings.TrimSpace(entry))
				if len(fields) == 0 {
					continue
				}
				if c, ok := resolveCandidate(fields[0], base, filter); ok {
					pages = append(pages, c)
				}
			}
		}
	})

	for _, attr := range dataAttrs {
		doc.Find("[" + attr + "]").Each(func(_ int, s *goquery.Selection) {
			if v, ok := s.Attr(attr); ok {
				if c, ok := resolveCandidate(v, base, filter); ok {
					pages = append(pages, c)
				}
			}
		})
	}

	doc.Find(`meta[http-equiv="refresh" i]`).Each(func(_ int, s *goquery.Selection) {
		content, ok := s.Attr("content")
		if !ok {
			return
		}
		m := metaRefreshURL.FindStringSubmatch(content)
		if len(m) != 2 {
			return
		}
		if c, ok := resolveCandidate(strings.TrimSpace(m[1]), base, filter); ok {
			pages = append(pages, c)
		}
	})

	return pages
}

// FromText runs the regex pass §4.B describes over non-HTML text (the
// engine calls it for JavaScript and CSS bodies, and not at all when
// content-only is set): quoted absolute paths, quoted full URLs, and CSS
// url(...) references.
func FromText(text string, base *url.URL, filter HostFilter) []Candidate {
	var out []Candidate
	add := func(raw string) {
		if c, ok := resolveCandidate(raw, base, filter); ok {
			out = append(out, c)
		}
	}

	for _, m := range quotedPath.FindAllStringSubmatch(text, -1) {
		if acceptableTextCandidate(m[1]) {
			add(m[1])
		}
	}
	for _, m := range quotedURL.FindAllStringSubmatch(text, -1) {
		if acceptableTextCandidate(m[1]) {
			add(m[1])
		}
	}
	for _, m := range cssURL.FindAllStringSubmatch(text, -1) {
		if acceptableTextCandidate(m[2]) {
			add(m[2])
		}
	}
	return out
}

// acceptableTextCandidate filters the text-regex pass's noisier matches:
// template placeholders, too-short strings, and bare lowercase words.
func acceptableTextCandidate(s string) bool {
	if strings.Contains(s, "${") || strings.Contains(s, "{{") {
		return false
	}
	if len(s) < 2 {
		return false
	}
	if isSingleLowercaseWord(s) {
		return false
	}
	return true
}

func isSingleLowercaseWord(s string) bool {
	if strings.ContainsAny(s, "/.:?&=") {
		return false
	}
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

func hasToken(attrValue, token string) bool {
	for _, f := range strings.Fields(attrValue) {
		if strings.EqualFold(f, token) {
			return true
		}
	}
	return false
}

// resolveCandidate implements the per-candidate pipeline from spec.md
// §4.B: reject, decode, reject again, resolve, host-filter.
func resolveCandidate(raw string, base *url.URL, filter HostFilter) (Candidate, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "#") {
		return Candidate{}, false
	}
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "mailto:") ||
		strings.HasPrefix(lower, "tel:") || strings.HasPrefix(lower, "data:") {
		return Candidate{}, false
	}

	decoded := html.UnescapeString(raw)
	if emailPattern.MatchString(decoded) || isPhoneNumber(decoded) {
		return Candidate{}, false
	}

	ref, err := url.Parse(decoded)
	if err != nil {
		return Candidate{}, false
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return Candidate{}, false
	}

	wasHTTP := ref.Scheme == "" && base.Scheme == "http" || ref.Scheme == "http"
	wasPortless := resolved.Port() == ""

	cameFromAdditional := filter.Accept(resolved)
	if resolved.Hostname() != filter.MainHost && !cameFromAdditional {
		return Candidate{}, false
	}

	c := Candidate{
		RawURL:                 *resolved,
		WasHTTP:                wasHTTP,
		WasPortless:            wasPortless,
		CameFromAdditionalHost: cameFromAdditional,
	}
	if fixed, ok := fixerUpper(ref, resolved, base, filter); ok {
		c.Fixed = fixed
	}
	return c, true
}

// fixerUpper detects a relative href whose resolved path swallowed a
// protocol - "<baseDir>/<firstSegment>/..." where firstSegment names the
// main host or an additional host - and synthesizes the intended absolute
// form. It never fires for references that already parsed as absolute.
// The candidate segment is the one immediately after base's own directory,
// not the first segment of the resolved path as a whole - a base with a
// sub-directory (e.g. "/dir/index") must not mistake "dir" for the
// swallowed host.
func fixerUpper(original, resolved, base *url.URL, filter HostFilter) (*url.URL, bool) {
	if original.IsAbs() {
		return nil, false
	}

	baseDir := "/"
	if i := strings.LastIndexByte(base.Path, '/'); i >= 0 {
		baseDir = base.Path[:i+1]
	}

	rest := strings.TrimPrefix(resolved.Path, baseDir)
	if rest == resolved.Path && baseDir != "/" {
		return nil, false
	}

	segments := strings.Split(rest, "/")
	if len(segments) < 2 {
		return nil, false
	}
	first := segments[0]
	if first != filter.MainHost {
		if _, ok := filter.AdditionalHosts[first]; !ok {
			return nil, false
		}
	}

	fixed := &url.URL{
		Scheme: filter.SeedScheme,
		Host:   first,
		Path:   "/" + strings.Join(segments[1:], "/"),
	}
	return fixed, true
}
