package observe

import "log"

// LogObserver writes one line per event through the standard log package.
// It never blocks on anything except stdout/stderr buffering.
type LogObserver struct{}

func (LogObserver) OnEnqueue(url string, referrer string) {
	if referrer == "" {
		log.Printf("enqueue url=%s seed=true", url)
		return
	}
	log.Printf("enqueue url=%s referrer=%s", url, referrer)
}

func (LogObserver) OnFetchStart(url string, attempt int) {
	log.Printf("fetch start url=%s attempt=%d", url, attempt)
}

func (LogObserver) OnFetchComplete(url string, status int, cause ErrorCause, err error) {
	if err != nil {
		log.Printf("fetch complete url=%s status=%d cause=%s err=%v", url, status, cause, err)
		return
	}
	log.Printf("fetch complete url=%s status=%d", url, status)
}

func (LogObserver) OnDiscover(url string) {
	log.Printf("discover url=%s", url)
}
