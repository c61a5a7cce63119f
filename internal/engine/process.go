package engine

import (
	"errors"

	"github.com/dnovak/webscout/internal/fetcher"
	"github.com/dnovak/webscout/internal/frontier"
	"github.com/dnovak/webscout/internal/observe"
	"github.com/dnovak/webscout/pkg/hashutil"
)

// process implements one worker-loop iteration: fetch, classify, and
// either re-enqueue, record a failure, or record a discovery and enqueue
// whatever the document referenced. It always retires entry's outstanding
// unit exactly once, regardless of outcome.
func (e *Engine) process(entry frontier.Entry) {
	defer e.retire()

	e.observer.OnFetchStart(entry.URL, entry.Attempts)
	res := fetcher.Fetch(entry.URL, entry.Attempts, entry.CanFallbackToHttp, entry.CanFallbackToNoPort, e.cache, e.fetchOpt)

	switch res.Outcome {
	case fetcher.Retry:
		e.observer.OnFetchComplete(entry.URL, 0, observe.CauseNetworkFailure, nil)
		next := entry
		next.Attempts++
		e.dispatch(next)

	case fetcher.Error:
		e.observer.OnFetchComplete(entry.URL, res.Status, observe.CauseNonTransientHTTP, errors.New(res.ErrMessage))
		if looksLikeHTML(entry.URL) {
			e.state.RecordFailure(entry.URL, res.ErrMessage)
		}

	case fetcher.Success:
		e.observer.OnFetchComplete(entry.URL, res.Status, observe.CauseUnknown, nil)
		e.handleSuccess(entry, res)
	}
}

func (e *Engine) handleSuccess(entry frontier.Entry, res fetcher.Result) {
	outcome := e.classifyBody(entry.URL, res.ContentType, res.Body, entry.IsSitemap)

	if outcome.isHTML && !outcome.sitemapDetected {
		e.state.AddDiscovered(entry.URL)
		e.observer.OnDiscover(entry.URL)
		e.state.MarkHTMLHash(hashutil.HashURL(entry.URL))
	}

	for _, c := range outcome.pages {
		e.enqueueCandidate(c, entry.URL)
	}
	for _, raw := range outcome.sitemapPages {
		e.enqueueRaw(raw, entry.URL, false, false)
	}
	for _, raw := range outcome.sitemapRefs {
		e.enqueueRaw(raw, entry.URL, false, true)
	}
}
