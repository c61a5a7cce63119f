// Package engine runs the concurrent crawl: a worker pool drains a
// channel-based frontier, fetching, classifying, and re-enqueueing until no
// work remains anywhere in flight.
package engine

import (
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/dnovak/webscout/internal/cache"
	"github.com/dnovak/webscout/internal/config"
	"github.com/dnovak/webscout/internal/extract"
	"github.com/dnovak/webscout/internal/fetcher"
	"github.com/dnovak/webscout/internal/frontier"
	"github.com/dnovak/webscout/internal/observe"
	"github.com/dnovak/webscout/pkg/urlutil"
)

// Engine owns the frontier transport and the shared crawl state for a
// single run. It is not reusable across runs.
type Engine struct {
	cfg      config.Config
	cache    *cache.Cache
	state    *frontier.SharedState
	observer observe.Observer
	policy   urlutil.SeedPolicy
	filter   extract.HostFilter
	fetchOpt fetcher.Options

	// work is what workers range over. It is fed exclusively by feedLoop,
	// never sent to directly by a worker - see dispatch's doc comment.
	work chan frontier.Entry

	queueMu   sync.Mutex
	queueCond *sync.Cond
	queue     []frontier.Entry
	closed    bool

	outstanding atomic.Int64
	workers     sync.WaitGroup
}

// New builds an Engine from cfg. A nil observer is equivalent to
// observe.NoopObserver.
func New(cfg config.Config, c *cache.Cache, obs observe.Observer) *Engine {
	seeds := cfg.SeedURLs()
	policy := urlutil.NewSeedPolicy(seeds[0])

	e := &Engine{
		cfg:      cfg,
		cache:    c,
		state:    frontier.NewSharedState(),
		observer: observe.Wrap(obs),
		policy:   policy,
		filter: extract.HostFilter{
			MainHost:        cfg.MainHost(),
			AdditionalHosts: cfg.AdditionalHosts(),
			SeedScheme:      seeds[0].Scheme,
		},
		fetchOpt: fetcher.Options{
			Timeout:       cfg.Timeout(),
			UserAgent:     cfg.UserAgent(),
			MaxRetries:    cfg.MaxRetries(),
			PreferredPort: cfg.PreferredPort(),
		},
		work: make(chan frontier.Entry),
	}
	e.queueCond = sync.NewCond(&e.queueMu)
	return e
}

// State exposes the crawl-wide sets for callers building output after Run
// returns.
func (e *Engine) State() *frontier.SharedState {
	return e.state
}

// Run seeds the frontier, starts the worker pool, and blocks until the
// frontier is empty and no work remains outstanding anywhere (queued or
// being processed). It never returns an error: per spec.md §7 the engine
// itself never fails, it only produces a partial result set.
func (e *Engine) Run() {
	go e.feedLoop()

	for _, seed := range e.cfg.SeedURLs() {
		e.enqueueSeed(seed)
	}

	if e.outstanding.Load() == 0 {
		e.closeQueue()
	}

	n := e.cfg.Concurrency()
	if n < 1 {
		n = 1
	}
	e.workers.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer e.workers.Done()
			e.workerLoop()
		}()
	}
	e.workers.Wait()
}

func (e *Engine) enqueueSeed(seed url.URL) {
	raw := seed.String()
	normalized, ok := urlutil.Normalize(raw, e.policy, e.cfg.PreserveQueryOrder())
	if !ok {
		return
	}
	if !e.state.MarkSeen(normalized) {
		return
	}
	e.observer.OnEnqueue(normalized, "")
	entry := frontier.NewEntry(normalized, seed.Scheme == "http", seed.Port() == "", false)
	e.dispatch(entry)
}

// dispatch accounts for entry in outstanding and appends it to the
// internal queue. Every enqueue path must go through this, never a bare
// channel send - dispatch is called from inside a worker's own process
// call, so it must never block on the channel itself: a worker blocked
// sending into a full/unread channel is a worker that can't drain
// anything else, which is exactly the deadlock an unbounded frontier
// (spec.md §5) exists to rule out. Appending to queue only ever blocks
// on a mutex held for the length of a slice append.
func (e *Engine) dispatch(entry frontier.Entry) {
	e.outstanding.Add(1)
	e.queueMu.Lock()
	e.queue = append(e.queue, entry)
	e.queueMu.Unlock()
	e.queueCond.Signal()
}

// retire marks one unit of outstanding work as complete. The goroutine
// that observes the counter reach zero is the one responsible for closing
// the queue - exactly one goroutine will ever see that transition, since
// the atomic decrement is linearizable, and every entry still in queue at
// that point has already been counted in outstanding, so it can't be
// sitting there unseen.
func (e *Engine) retire() {
	if e.outstanding.Add(-1) == 0 {
		e.closeQueue()
	}
}

// closeQueue marks the queue closed and wakes feedLoop so it can drain
// whatever remains (nothing, once outstanding has hit zero) and close
// work.
func (e *Engine) closeQueue() {
	e.queueMu.Lock()
	e.closed = true
	e.queueMu.Unlock()
	e.queueCond.Signal()
}

// feedLoop is the sole sender on work: it moves entries from the
// unbounded internal queue to the channel workers range over, one at a
// time, blocking on the channel send only here - never inside a worker.
func (e *Engine) feedLoop() {
	for {
		e.queueMu.Lock()
		for len(e.queue) == 0 && !e.closed {
			e.queueCond.Wait()
		}
		if len(e.queue) == 0 {
			e.queueMu.Unlock()
			close(e.work)
			return
		}
		entry := e.queue[0]
		e.queue = e.queue[1:]
		e.queueMu.Unlock()
		e.work <- entry
	}
}

func (e *Engine) workerLoop() {
	for entry := range e.work {
		e.process(entry)
	}
}
