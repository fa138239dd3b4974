package metrics

import "sync/atomic"

// Metrics captures shared operational stats for the update pipeline.
type Metrics struct {
	passes        int64
	changedPasses int64
	rowsParsed    int64
	rowsSkipped   int64
	soundsPlayed  int64
	relayAttempts int64
	relayFailures int64
}

// Snapshot provides a consistent view of the current metrics.
type Snapshot struct {
	Passes        int64 `json:"passes"`
	ChangedPasses int64 `json:"changed_passes"`
	RowsParsed    int64 `json:"rows_parsed"`
	RowsSkipped   int64 `json:"rows_skipped"`
	SoundsPlayed  int64 `json:"sounds_played"`
	RelayAttempts int64 `json:"relay_attempts"`
	RelayFailures int64 `json:"relay_failures"`
}

// New creates a zeroed Metrics instance.
func New() *Metrics {
	return &Metrics{}
}

// RecordPass counts one pipeline pass and its row accounting.
func (m *Metrics) RecordPass(changed bool, parsed, skipped int) {
	atomic.AddInt64(&m.passes, 1)
	if changed {
		atomic.AddInt64(&m.changedPasses, 1)
	}
	atomic.AddInt64(&m.rowsParsed, int64(parsed))
	atomic.AddInt64(&m.rowsSkipped, int64(skipped))
}

// RecordSound counts one played notification sound.
func (m *Metrics) RecordSound() {
	atomic.AddInt64(&m.soundsPlayed, 1)
}

// RecordRelay counts one outbound relay attempt and its outcome.
func (m *Metrics) RecordRelay(ok bool) {
	atomic.AddInt64(&m.relayAttempts, 1)
	if !ok {
		atomic.AddInt64(&m.relayFailures, 1)
	}
}

// Snapshot returns a read-only view of metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Passes:        atomic.LoadInt64(&m.passes),
		ChangedPasses: atomic.LoadInt64(&m.changedPasses),
		RowsParsed:    atomic.LoadInt64(&m.rowsParsed),
		RowsSkipped:   atomic.LoadInt64(&m.rowsSkipped),
		SoundsPlayed:  atomic.LoadInt64(&m.soundsPlayed),
		RelayAttempts: atomic.LoadInt64(&m.relayAttempts),
		RelayFailures: atomic.LoadInt64(&m.relayFailures),
	}
}
