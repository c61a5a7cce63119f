package extract

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustBase(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func mustDoc(t *testing.T, htmlStr string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	require.NoError(t, err)
	return doc
}

func mainFilter(host string) HostFilter {
	return HostFilter{MainHost: host, AdditionalHosts: map[string]struct{}{}, SeedScheme: "https"}
}

func TestFromHTML_ExtractsAnchorHref(t *testing.T) {
	doc := mustDoc(t, `<a href="/about">About</a>`)
	base := mustBase(t, "https://ex/")
	got := FromHTML(doc, base, false, mainFilter("ex"))
	require.Len(t, got, 1)
	assert.Equal(t, "https://ex/about", got[0].RawURL.String())
}

func TestFromHTML_DropsNofollowUnlessFollowAll(t *testing.T) {
	doc := mustDoc(t, `<a href="/x" rel="nofollow">x</a>`)
	base := mustBase(t, "https://ex/")
	assert.Empty(t, FromHTML(doc, base, false, mainFilter("ex")))
	assert.Len(t, FromHTML(doc, base, true, mainFilter("ex")), 1)
}

func TestFromHTML_RoutesRelSitemap(t *testing.T) {
	doc := mustDoc(t, `<link rel="sitemap" href="/sitemap.xml">`)
	base := mustBase(t, "https://ex/")
	got := FromHTML(doc, base, false, mainFilter("ex"))
	require.Len(t, got, 1)
	assert.True(t, got[0].IsSitemap)
}

func TestFromHTML_RejectsOffHost(t *testing.T) {
	doc := mustDoc(t, `<a href="https://other.example/x">x</a>`)
	base := mustBase(t, "https://ex/")
	assert.Empty(t, FromHTML(doc, base, false, mainFilter("ex")))
}

func TestFromHTML_RewritesAdditionalHost(t *testing.T) {
	doc := mustDoc(t, `<a href="http://mirror.internal/x">x</a>`)
	base := mustBase(t, "https://ex/")
	filter := HostFilter{MainHost: "ex", AdditionalHosts: map[string]struct{}{"mirror.internal": {}}, SeedScheme: "https"}
	got := FromHTML(doc, base, false, filter)
	require.Len(t, got, 1)
	assert.Equal(t, "https://ex/x", got[0].RawURL.String())
	assert.True(t, got[0].CameFromAdditionalHost)
}

func TestFromHTML_RejectsJavascriptMailtoTelData(t *testing.T) {
	doc := mustDoc(t, `<a href="javascript:void(0)">a</a><a href="mailto:x@y.com">b</a><a href="tel:+1234567">c</a><a href="data:text/plain,hi">d</a>`)
	base := mustBase(t, "https://ex/")
	assert.Empty(t, FromHTML(doc, base, false, mainFilter("ex")))
}

func TestFromHTML_SrcsetFirstToken(t *testing.T) {
	doc := mustDoc(t, `<img srcset="/a.jpg 1x, /b.jpg 2x">`)
	base := mustBase(t, "https://ex/")
	got := FromHTML(doc, base, false, mainFilter("ex"))
	require.Len(t, got, 2)
	assert.Equal(t, "https://ex/a.jpg", got[0].RawURL.String())
	assert.Equal(t, "https://ex/b.jpg", got[1].RawURL.String())
}

func TestFromHTML_DataAttributes(t *testing.T) {
	doc := mustDoc(t, `<div data-url="/d1"></div><span data-href="/d2"></span>`)
	base := mustBase(t, "https://ex/")
	got := FromHTML(doc, base, false, mainFilter("ex"))
	assert.Len(t, got, 2)
}

func TestFromHTML_MetaRefresh(t *testing.T) {
	doc := mustDoc(t, `<meta http-equiv="refresh" content="5;url=/next">`)
	base := mustBase(t, "https://ex/")
	got := FromHTML(doc, base, false, mainFilter("ex"))
	require.Len(t, got, 1)
	assert.Equal(t, "https://ex/next", got[0].RawURL.String())
}

func TestFromHTML_FixerUpperEmitsBothForms(t *testing.T) {
	doc := mustDoc(t, `<a href="ex/page">x</a>`)
	base := mustBase(t, "https://ex/dir/index")
	got := FromHTML(doc, base, false, mainFilter("ex"))
	require.Len(t, got, 1)
	assert.Equal(t, "https://ex/dir/ex/page", got[0].RawURL.String())
	require.NotNil(t, got[0].Fixed)
	assert.Equal(t, "https://ex/page", got[0].Fixed.String())
}

func TestFromHTML_FixerUpperNeverFiresForAbsolute(t *testing.T) {
	doc := mustDoc(t, `<a href="https://ex/ex/page">x</a>`)
	base := mustBase(t, "https://ex/dir/")
	got := FromHTML(doc, base, false, mainFilter("ex"))
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Fixed)
}

func TestFromText_QuotedAbsolutePath(t *testing.T) {
	base := mustBase(t, "https://ex/")
	got := FromText(`var x = "/api/data";`, base, mainFilter("ex"))
	require.Len(t, got, 1)
	assert.Equal(t, "https://ex/api/data", got[0].RawURL.String())
}

func TestFromText_QuotedFullURL(t *testing.T) {
	base := mustBase(t, "https://ex/")
	got := FromText(`fetch("https://ex/api/v2/resource")`, base, mainFilter("ex"))
	require.Len(t, got, 1)
}

func TestFromText_CSSUrl(t *testing.T) {
	base := mustBase(t, "https://ex/")
	got := FromText(`.bg { background: url('/img/a.png'); }`, base, mainFilter("ex"))
	require.Len(t, got, 1)
	assert.Equal(t, "https://ex/img/a.png", got[0].RawURL.String())
}

func TestFromText_RejectsTemplatePlaceholders(t *testing.T) {
	base := mustBase(t, "https://ex/")
	got := FromText(`"${api}/x"`, base, mainFilter("ex"))
	assert.Empty(t, got)
}

func TestFromText_RejectsSingleLowercaseWord(t *testing.T) {
	base := mustBase(t, "https://ex/")
	got := FromText(`"hello"`, base, mainFilter("ex"))
	assert.Empty(t, got)
}

func TestResolveCandidate_RejectsEmailAndPhone(t *testing.T) {
	base := mustBase(t, "https://ex/")
	filter := mainFilter("ex")
	_, ok := resolveCandidate("person@example.com", base, filter)
	assert.False(t, ok)
	_, ok = resolveCandidate("+1-555-123-4567", base, filter)
	assert.False(t, ok)
}
