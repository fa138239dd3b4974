package engine

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/Warr10rOfOdin/dispatchwatch/internal/alert"
	"github.com/Warr10rOfOdin/dispatchwatch/internal/events"
	"github.com/Warr10rOfOdin/dispatchwatch/internal/locate"
	"github.com/Warr10rOfOdin/dispatchwatch/internal/metrics"
	"github.com/Warr10rOfOdin/dispatchwatch/internal/record"
	"github.com/Warr10rOfOdin/dispatchwatch/internal/registry"
	"github.com/Warr10rOfOdin/dispatchwatch/internal/source"
	"github.com/Warr10rOfOdin/dispatchwatch/internal/view"
)

// Options configures an Engine. Zero durations fall back to defaults.
type Options struct {
	Fetcher   source.Fetcher
	Root      string
	Scheduler *alert.Scheduler
	Metrics   *metrics.Metrics
	Bus       *events.Bus

	Window   time.Duration
	Upcoming time.Duration
	Poll     time.Duration
	Debounce time.Duration
	Retry    time.Duration

	// Now is the clock; tests inject a fixed one.
	Now func() time.Time
}

const (
	defaultPoll     = 4 * time.Second
	defaultDebounce = 300 * time.Millisecond
	defaultRetry    = 2 * time.Second
)

// Engine drives the update cycle: load the document hierarchy, locate the
// dispatch table, normalize rows, diff against the previous snapshot and hand
// the result to the alert scheduler. All mutable state lives behind one lock;
// passes themselves are serialized by the run loop.
type Engine struct {
	fetcher source.Fetcher
	root    string
	sched   *alert.Scheduler
	metrics *metrics.Metrics
	bus     *events.Bus

	window   time.Duration
	upcoming time.Duration
	poll     time.Duration
	debounce time.Duration
	retry    time.Duration
	now      func() time.Time

	changeCh chan struct{}

	mu       sync.Mutex
	reg      *registry.Registry
	current  record.Set
	located  bool
	lastPass time.Time
	lastErr  string
}

// Diagnostics is the self-describing state exposed through the API.
type Diagnostics struct {
	Located        bool               `json:"located"`
	LastPass       time.Time          `json:"last_pass"`
	LastError      string             `json:"last_error,omitempty"`
	ReminderActive bool               `json:"reminder_active"`
	Rows           record.Diagnostics `json:"rows"`
}

func New(opts Options) *Engine {
	if opts.Poll <= 0 {
		opts.Poll = defaultPoll
	}
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	if opts.Retry <= 0 {
		opts.Retry = defaultRetry
	}
	if opts.Upcoming <= 0 {
		opts.Upcoming = view.DefaultUpcoming
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Bus == nil {
		opts.Bus = events.NewBus()
	}
	return &Engine{
		fetcher:  opts.Fetcher,
		root:     opts.Root,
		sched:    opts.Scheduler,
		metrics:  opts.Metrics,
		bus:      opts.Bus,
		window:   opts.Window,
		upcoming: opts.Upcoming,
		poll:     opts.Poll,
		debounce: opts.Debounce,
		retry:    opts.Retry,
		now:      opts.Now,
		changeCh: make(chan struct{}, 1),
		reg:      registry.New(),
	}
}

// Run executes passes until ctx is cancelled: one immediately, then on every
// poll tick, on debounced change notifications, and on the faster retry tick
// while the table has not been located yet.
func (e *Engine) Run(ctx context.Context) error {
	defer e.sched.Stop()
	poll := time.NewTicker(e.poll)
	defer poll.Stop()
	retry := time.NewTicker(e.retry)
	defer retry.Stop()
	debounce := time.NewTimer(e.debounce)
	if !debounce.Stop() {
		<-debounce.C
	}

	e.Pass(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.changeCh:
			// Coalesce bursts of notifications into one pass.
			debounce.Reset(e.debounce)
		case <-debounce.C:
			e.Pass(ctx)
		case <-poll.C:
			e.Pass(ctx)
		case <-retry.C:
			if !e.Located() {
				e.Pass(ctx)
			}
		}
	}
}

// NotifyChange signals that the source mutated. Non-blocking; extra signals
// while one is pending are dropped.
func (e *Engine) NotifyChange() {
	select {
	case e.changeCh <- struct{}{}:
	default:
	}
}

// Pass runs one full update cycle. A root fetch failure keeps the previous
// snapshot; a missing table clears it, since a page without the table shows
// no rows.
func (e *Engine) Pass(ctx context.Context) {
	now := e.now()
	docs, err := source.LoadHierarchy(ctx, e.fetcher, e.root)
	if err != nil {
		e.mu.Lock()
		e.lastErr = err.Error()
		e.lastPass = now
		e.mu.Unlock()
		log.Printf("pass failed root=%s err=%v", e.root, err)
		return
	}

	var set record.Set
	table, located := locate.Find(docs)
	if located {
		set = record.Normalize(table.Headers, table.Rows, now, e.window)
	}

	e.mu.Lock()
	var delta registry.Delta
	// A table that has never been located is not a baseline; priming on the
	// empty set would make the first real snapshot look like all-new records.
	if located || e.reg.Primed() {
		delta = e.reg.Apply(set)
	}
	e.current = set
	e.located = located
	e.lastErr = ""
	e.lastPass = now
	e.mu.Unlock()

	counts := view.Stats(set.Records, now, e.upcoming)
	e.sched.Evaluate(set.Records, delta, counts, now)

	skipped := set.Diag.SkippedEmpty + set.Diag.SkippedFewCells + set.Diag.FilteredByWindow
	e.metrics.RecordPass(delta.Changed, set.Diag.ParsedRows, skipped)
	e.bus.Publish(events.PassEvent{
		At:      now,
		Located: located,
		Changed: delta.Changed,
		Records: len(set.Records),
		NewIDs:  len(delta.NewIDs),
	})
}

// Records derives a presentation list from the current snapshot.
func (e *Engine) Records(opts view.Options) []record.Record {
	if opts.Upcoming <= 0 {
		opts.Upcoming = e.upcoming
	}
	e.mu.Lock()
	recs := append([]record.Record(nil), e.current.Records...)
	e.mu.Unlock()
	return view.Apply(recs, opts, e.now())
}

// Stats returns aggregate counters over the current snapshot.
func (e *Engine) Stats() view.Counts {
	e.mu.Lock()
	recs := append([]record.Record(nil), e.current.Records...)
	e.mu.Unlock()
	return view.Stats(recs, e.now(), e.upcoming)
}

// Snapshot returns the full current record list and its counts, for relaying.
func (e *Engine) Snapshot() ([]record.Record, view.Counts) {
	e.mu.Lock()
	recs := append([]record.Record(nil), e.current.Records...)
	e.mu.Unlock()
	return recs, view.Stats(recs, e.now(), e.upcoming)
}

// Diagnostics reports engine state for the diagnostics endpoint.
func (e *Engine) Diagnostics() Diagnostics {
	e.mu.Lock()
	d := Diagnostics{
		Located:   e.located,
		LastPass:  e.lastPass,
		LastError: e.lastErr,
		Rows:      e.current.Diag,
	}
	e.mu.Unlock()
	d.ReminderActive = e.sched.ReminderActive()
	return d
}

// Located reports whether the last pass found the dispatch table.
func (e *Engine) Located() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.located
}

// SetMuted forwards the persisted mute preference to the alert scheduler.
func (e *Engine) SetMuted(muted bool) {
	e.sched.SetMuted(muted)
}
