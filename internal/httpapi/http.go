package httpapi

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/Warr10rOfOdin/dispatchwatch/internal/engine"
	"github.com/Warr10rOfOdin/dispatchwatch/internal/metrics"
	"github.com/Warr10rOfOdin/dispatchwatch/internal/relay"
	"github.com/Warr10rOfOdin/dispatchwatch/internal/store"
	"github.com/Warr10rOfOdin/dispatchwatch/internal/view"
)

// Router builds HTTP handlers for /api and /ops.
type Router struct {
	engine  *engine.Engine
	store   *store.Store
	metrics *metrics.Metrics
}

func NewRouter(e *engine.Engine, st *store.Store, m *metrics.Metrics) *Router {
	return &Router{engine: e, store: st, metrics: m}
}

func (r *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/records", r.records)
	mux.HandleFunc("/api/stats", r.stats)
	mux.HandleFunc("/api/diagnostics", r.diagnostics)
	mux.HandleFunc("/api/settings", r.settings)
	mux.HandleFunc("/api/relay", r.relay)
	mux.HandleFunc("/ops/status", r.status)
	mux.HandleFunc("/ops/health", r.health)
}

// records serves the derived presentation list. Unknown sort keys fall back
// to announce order and unknown filters to the full list.
func (r *Router) records(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	opts := view.Options{
		Key:    view.SortKey(q.Get("sort")),
		Desc:   q.Get("dir") == "desc",
		Filter: view.StatusFilter(q.Get("filter")),
		Query:  q.Get("q"),
	}
	respondJSON(w, r.engine.Records(opts))
}

func (r *Router) stats(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, r.engine.Stats())
}

func (r *Router) diagnostics(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, r.engine.Diagnostics())
}

func (r *Router) settings(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	switch req.Method {
	case http.MethodGet:
		s, err := r.store.Load(ctx)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		respondJSON(w, s)
	case http.MethodPost:
		var s store.Settings
		if err := json.NewDecoder(req.Body).Decode(&s); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := r.store.Save(ctx, s); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		r.engine.SetMuted(s.Muted)
		respondJSON(w, s)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// relay forwards the request body, or the current snapshot when the body is
// empty, to the configured endpoint once. Failures come back in the result
// body; nothing is retried automatically.
func (r *Router) relay(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := req.Context()
	settings, err := r.store.Load(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	var payload any
	body, err := io.ReadAll(io.LimitReader(req.Body, 1<<20))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(body) > 0 {
		if !json.Valid(body) {
			http.Error(w, "body must be JSON", http.StatusBadRequest)
			return
		}
		payload = json.RawMessage(body)
	} else {
		recs, counts := r.engine.Snapshot()
		payload = relay.Payload{SentAt: time.Now(), Counts: counts, Records: recs}
	}
	result := relay.Forward(ctx, settings.RelayEndpoint, settings.RelaySecret, payload)
	r.metrics.RecordRelay(result.OK)
	if !result.OK {
		log.Printf("relay failed reason=%q", result.Reason)
	}
	respondJSON(w, result)
}

func (r *Router) status(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, map[string]any{
		"located":     r.engine.Located(),
		"counts":      r.engine.Stats(),
		"metrics":     r.metrics.Snapshot(),
		"diagnostics": r.engine.Diagnostics(),
	})
}

func (r *Router) health(w http.ResponseWriter, req *http.Request) {
	if err := r.store.Health(req.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func respondJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write json: %v", err)
	}
}
