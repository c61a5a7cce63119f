package engine

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dnovak/webscout/internal/extract"
	"github.com/dnovak/webscout/internal/sitemap"
)

// classification is the content classifier's output for one fetched body.
type classification struct {
	isHTML          bool
	sitemapDetected bool
	pages           []extract.Candidate
	sitemapPages    []string
	sitemapRefs     []string
}

// classifyBody implements spec.md §4.F.1: dispatch on Content-Type,
// lowercased and stripped of any ";" parameter, consulting isSitemap only
// for a text/plain body.
func (e *Engine) classifyBody(base string, contentType, body string, isSitemap bool) classification {
	ct := strings.ToLower(contentType)
	if i := strings.IndexByte(ct, ';'); i != -1 {
		ct = ct[:i]
	}
	ct = strings.TrimSpace(ct)

	switch ct {
	case "application/xml", "text/xml":
		return sitemapClassification(body)
	case "text/plain":
		if isSitemap {
			return sitemapClassification(body)
		}
		return classification{}
	case "text/html":
		baseURL, err := url.Parse(base)
		if err != nil {
			return classification{}
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
		if err != nil {
			return classification{}
		}
		pages := extract.FromHTML(doc, baseURL, e.cfg.FollowAll(), e.filter)
		return classification{isHTML: true, pages: pages}
	case "application/javascript", "text/css":
		if e.cfg.ContentOnly() {
			return classification{}
		}
		baseURL, err := url.Parse(base)
		if err != nil {
			return classification{}
		}
		pages := extract.FromText(body, baseURL, e.filter)
		return classification{pages: pages}
	default:
		return classification{}
	}
}

func sitemapClassification(body string) classification {
	res := sitemap.Parse(strings.NewReader(body))
	if res.Empty() {
		return classification{}
	}
	return classification{sitemapDetected: true, sitemapPages: res.PageURLs, sitemapRefs: res.SitemapURLs}
}
