package engine

import (
	"net/url"
	"strings"

	"github.com/dnovak/webscout/internal/extract"
	"github.com/dnovak/webscout/internal/frontier"
	"github.com/dnovak/webscout/pkg/urlutil"
)

// enqueueCandidate enqueues the candidate's unfixed form, then - per the
// fixer-upper rule - its repaired form if one was detected. Both orderings
// matter for S-scenario reproducibility, so the unfixed form always goes
// first.
func (e *Engine) enqueueCandidate(c extract.Candidate, source string) {
	e.enqueueResolved(c.RawURL, source, c.CameFromAdditionalHost, c.WasHTTP, c.WasPortless, c.IsSitemap)
	if c.Fixed != nil {
		e.enqueueResolved(*c.Fixed, source, false, c.Fixed.Scheme == "http", c.Fixed.Port() == "", c.IsSitemap)
	}
}

// enqueueRaw enqueues a URL string discovered outside the extract package's
// candidate pipeline - sitemap <loc> entries, which arrive pre-resolved and
// absolute but unfiltered by host.
func (e *Engine) enqueueRaw(raw string, source string, cameFromAdditionalHost bool, isSitemap bool) {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return
	}
	cameFromAdditional := e.filter.Accept(u)
	if u.Hostname() != e.filter.MainHost && !cameFromAdditional {
		return
	}
	e.enqueueResolved(*u, source, cameFromAdditional, u.Scheme == "http", u.Port() == "", isSitemap)
}

// enqueueResolved implements spec.md §4.F.2. The referrer edge is recorded
// against the normalized identity rather than the pre-normalization form,
// consistent with §3's invariant that every URL in any tracked set has
// already been normalized - referrers is one of those sets.
func (e *Engine) enqueueResolved(resolved url.URL, source string, cameFromAdditionalHost, wasHTTP, wasPortless bool, isSitemap bool) {
	normalized, ok := urlutil.Normalize(resolved.String(), e.policy, e.cfg.PreserveQueryOrder())
	if !ok {
		return
	}

	e.state.AddReferrer(normalized, source)
	e.observer.OnEnqueue(normalized, source)

	if !e.state.MarkSeen(normalized) {
		return
	}

	entry := frontier.NewEntry(normalized, wasHTTP, wasPortless && !cameFromAdditionalHost, isSitemap)
	e.dispatch(entry)
}

// looksLikeHTML implements the §4.F "looks like HTML" URL-shape heuristic
// used to decide whether a failed fetch is worth reporting.
func looksLikeHTML(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	path := u.Path
	if path == "" || path == "/" {
		return true
	}
	if path[len(path)-1] == '/' {
		return true
	}

	last := path
	if i := strings.LastIndexByte(path, '/'); i != -1 {
		last = path[i+1:]
	}
	lowerLast := strings.ToLower(last)

	for _, ext := range htmlExtensions {
		if strings.HasSuffix(lowerLast, ext) {
			return true
		}
	}
	return !strings.Contains(last, ".")
}

var htmlExtensions = []string{".html", ".htm", ".php", ".asp", ".aspx", ".jsp", ".cgi", ".pl"}
