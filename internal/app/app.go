package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/Warr10rOfOdin/dispatchwatch/internal/alert"
	"github.com/Warr10rOfOdin/dispatchwatch/internal/config"
	"github.com/Warr10rOfOdin/dispatchwatch/internal/engine"
	"github.com/Warr10rOfOdin/dispatchwatch/internal/events"
	"github.com/Warr10rOfOdin/dispatchwatch/internal/httpapi"
	"github.com/Warr10rOfOdin/dispatchwatch/internal/metrics"
	"github.com/Warr10rOfOdin/dispatchwatch/internal/source"
	"github.com/Warr10rOfOdin/dispatchwatch/internal/store"
	"github.com/Warr10rOfOdin/dispatchwatch/internal/view"
)

// App wires the service components together: settings store, alert
// scheduler, update engine, optional file watcher and the HTTP surface.
type App struct {
	cfg     config.Config
	store   *store.Store
	sched   *alert.Scheduler
	eng     *engine.Engine
	bus     *events.Bus
	watcher *source.Watcher
	mux     *http.ServeMux
}

func New(cfg config.Config) (*App, error) {
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	settings, err := st.Load(context.Background())
	if err != nil {
		st.Close()
		return nil, err
	}

	m := metrics.New()
	notifier := &countingNotifier{inner: alert.NewExecNotifier(cfg.PlayerCommand), metrics: m}
	sched := alert.New(notifier, cfg.ChimeBucket, cfg.ReminderEvery)
	sched.SetMuted(settings.Muted)

	fetcher, isFile, err := buildFetcher(cfg.SourceURL)
	if err != nil {
		st.Close()
		return nil, err
	}

	bus := events.NewBus()
	eng := engine.New(engine.Options{
		Fetcher:   fetcher,
		Root:      cfg.SourceURL,
		Scheduler: sched,
		Metrics:   m,
		Bus:       bus,
		Window:    cfg.Window,
		Upcoming:  cfg.Upcoming,
		Poll:      cfg.PollInterval,
		Debounce:  cfg.Debounce,
		Retry:     cfg.LocateRetry,
	})

	var watcher *source.Watcher
	if isFile {
		watcher = source.NewWatcher(cfg.SourceURL, eng.NotifyChange)
	}

	mux := http.NewServeMux()
	httpapi.NewRouter(eng, st, m).Register(mux)

	return &App{cfg: cfg, store: st, sched: sched, eng: eng, bus: bus, watcher: watcher, mux: mux}, nil
}

// Run starts the watcher, engine and HTTP server, blocking until ctx is
// cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	if a.watcher != nil {
		if err := a.watcher.Start(ctx); err != nil {
			log.Printf("source watch unavailable, polling only: %v", err)
		}
	}
	go a.logPasses(ctx)
	go func() {
		if err := a.eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("engine stopped: %v", err)
		}
	}()

	srv := &http.Server{Addr: a.cfg.ListenAddr, Handler: a.mux}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()
	log.Printf("dispatchwatch listening addr=%s source=%s", a.cfg.ListenAddr, a.cfg.SourceURL)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases resources once Run has returned.
func (a *App) Close() error {
	a.sched.Stop()
	return a.store.Close()
}

func (a *App) Engine() *engine.Engine { return a.eng }
func (a *App) Store() *store.Store   { return a.store }
func (a *App) Mux() *http.ServeMux   { return a.mux }

// countingNotifier wraps the real notifier so played sounds show up in the
// metrics snapshot.
type countingNotifier struct {
	inner   alert.Notifier
	metrics *metrics.Metrics
}

func (n *countingNotifier) Play(s alert.Sound) {
	n.metrics.RecordSound()
	n.inner.Play(s)
}

func (n *countingNotifier) Badge(c view.Counts) {
	n.inner.Badge(c)
}

// buildFetcher picks the transport from the source reference: http and https
// schemes go over the network, everything else is a local file path.
func buildFetcher(sourceURL string) (source.Fetcher, bool, error) {
	if u, err := url.Parse(sourceURL); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		f, err := source.NewHTTPFetcher(sourceURL)
		if err != nil {
			return nil, false, err
		}
		return f, false, nil
	}
	return source.NewFileFetcher(sourceURL), true, nil
}

func (a *App) logPasses(ctx context.Context) {
	sub := a.bus.Subscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-sub:
			if ev.Changed {
				log.Printf("records updated located=%t count=%d new=%d", ev.Located, ev.Records, ev.NewIDs)
			}
		}
	}
}
