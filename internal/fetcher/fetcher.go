// Package fetcher performs a single URL's HTTP GET with timeout,
// transient-error retry, and authority fallback, integrating the response
// cache along the way.
package fetcher

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/dnovak/webscout/internal/cache"
	"github.com/dnovak/webscout/pkg/failure"
)

// Outcome classifies the result of a single Fetch call.
type Outcome int

const (
	Retry Outcome = iota
	Success
	Error
)

// Result is the fetcher's full report. Only the fields relevant to the
// Outcome are meaningful: Retry carries nothing else, Success carries the
// body, Error carries ErrMessage.
type Result struct {
	Outcome     Outcome
	Status      int
	ContentType string
	Body        string
	// FetchedURL is the URL actually requested, which may differ from the
	// frontier URL after an authority fallback. The engine never uses it
	// for set membership - only the frontier's own URL is recorded.
	FetchedURL string
	FromCache  bool
	ErrMessage string
}

// Options carries the fetch-wide settings the caller supplies once.
type Options struct {
	Timeout       time.Duration
	UserAgent     string
	MaxRetries    int
	PreferredPort string
	Client        *http.Client
}

var transientStatuses = map[int]bool{
	408: true, 429: true, 500: true, 502: true, 503: true, 504: true,
}

// Fetch implements spec.md §4.E's contract. attempts is the number of
// completed attempts so far (0 on first call); canHttpFallback and
// canNoPortFallback are properties of the frontier entry, consumed here
// but never derived.
func Fetch(url string, attempts int, canHttpFallback, canNoPortFallback bool, c *cache.Cache, opts Options) Result {
	return fetch(url, attempts, canHttpFallback, canNoPortFallback, false, false, c, opts)
}

func fetch(url string, attempts int, canHttpFallback, canNoPortFallback bool, triedNoPort, triedHttp bool, c *cache.Cache, opts Options) Result {
	if c != nil {
		if rec, ok := c.Get(url); ok {
			return Result{
				Outcome:     Success,
				Status:      rec.Status,
				ContentType: rec.ContentType,
				Body:        rec.Body,
				FetchedURL:  url,
				FromCache:   true,
			}
		}
	}

	resp, err := doRequest(url, opts)
	if err != nil {
		if canNoPortFallback && !triedNoPort && opts.PreferredPort != "" && hasPort(url, opts.PreferredPort) {
			return fetch(stripPort(url), attempts, canHttpFallback, canNoPortFallback, true, triedHttp, c, opts)
		}
		if canHttpFallback && !triedHttp && strings.HasPrefix(url, "https://") {
			return fetch(downgradeScheme(url), attempts, canHttpFallback, canNoPortFallback, triedNoPort, true, c, opts)
		}
		if attempts < opts.MaxRetries {
			return Result{Outcome: Retry}
		}
		return Result{Outcome: Error, ErrMessage: err.Error()}
	}
	defer resp.Body.Close()

	if transientStatuses[resp.StatusCode] && attempts < opts.MaxRetries {
		return Result{Outcome: Retry}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{Outcome: Error, ErrMessage: httpStatusMessage(resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if attempts < opts.MaxRetries {
			return Result{Outcome: Retry}
		}
		return Result{Outcome: Error, ErrMessage: err.Error()}
	}

	contentType := resp.Header.Get("Content-Type")
	if c != nil {
		if classified := c.Set(url, resp.StatusCode, contentType, string(body)); classified != nil {
			logCacheWriteFailure(url, classified)
		}
	}

	return Result{
		Outcome:     Success,
		Status:      resp.StatusCode,
		ContentType: contentType,
		Body:        string(body),
		FetchedURL:  url,
	}
}

func doRequest(url string, opts Options) (*http.Response, error) {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	return client.Do(req)
}

func hasPort(url, port string) bool {
	return strings.Contains(url, ":"+port+"/") || strings.HasSuffix(url, ":"+port)
}

func stripPort(url string) string {
	scheme := "https://"
	rest := strings.TrimPrefix(url, scheme)
	if rest == url {
		scheme = "http://"
		rest = strings.TrimPrefix(url, scheme)
	}

	slash := strings.IndexByte(rest, '/')
	authority := rest
	path := ""
	if slash != -1 {
		authority = rest[:slash]
		path = rest[slash:]
	}
	if colon := strings.IndexByte(authority, ':'); colon != -1 {
		authority = authority[:colon]
	}
	return scheme + authority + path
}

func downgradeScheme(url string) string {
	return "http://" + strings.TrimPrefix(url, "https://")
}

func httpStatusMessage(status int) string {
	return fmt.Sprintf("HTTP %d", status)
}

// logCacheWriteFailure reports a cache write failure at a level matching
// its classification. A cache write is never fatal to the fetch that's
// already succeeded (see internal/cache.Error's doc comment), but a Fatal
// classification - should one ever be introduced - gets a distinct,
// louder line than a routine Recoverable one.
func logCacheWriteFailure(url string, err failure.ClassifiedError) {
	switch err.Severity() {
	case failure.SeverityFatal:
		log.Printf("cache write failed fatally url=%s err=%v", url, err)
	default:
		log.Printf("cache write failed (recoverable) url=%s err=%v", url, err)
	}
}
