package alert

import (
	"sync"
	"time"

	"github.com/Warr10rOfOdin/dispatchwatch/internal/record"
	"github.com/Warr10rOfOdin/dispatchwatch/internal/registry"
	"github.com/Warr10rOfOdin/dispatchwatch/internal/view"
)

// Sound identifies one of the engine's notification cues.
type Sound string

const (
	// SoundChime fires when a record's announce time enters the current
	// time bucket.
	SoundChime Sound = "chime"
	// SoundReminder re-fires while any record is under sending.
	SoundReminder Sound = "reminder"
	// SoundNewRecords fires when new record ids appear after the first
	// populated pass.
	SoundNewRecords Sound = "new-records"
)

// Notifier receives alert cues and badge updates. Implementations must treat
// playback failure as non-fatal; sound is an affordance, not data.
type Notifier interface {
	Play(sound Sound)
	Badge(counts view.Counts)
}

const (
	DefaultBucket        = 5 * time.Minute
	DefaultReminderEvery = 30 * time.Second
)

// Scheduler decides, from registry deltas and time-bucket membership, which
// notification events fire on each pass. Chime memory is append-only for the
// scheduler's lifetime; ids that stop appearing simply stop being looked up.
type Scheduler struct {
	notifier      Notifier
	bucket        time.Duration
	reminderEvery time.Duration

	mu           sync.Mutex
	muted        bool
	chimed       map[string]struct{}
	reminderStop chan struct{}
}

func New(n Notifier, bucket, reminderEvery time.Duration) *Scheduler {
	if bucket <= 0 {
		bucket = DefaultBucket
	}
	if reminderEvery <= 0 {
		reminderEvery = DefaultReminderEvery
	}
	return &Scheduler{
		notifier:      n,
		bucket:        bucket,
		reminderEvery: reminderEvery,
		chimed:        make(map[string]struct{}),
	}
}

// SetMuted suppresses sounds without affecting badge updates or chime
// bookkeeping, so unmuting does not replay a backlog.
func (s *Scheduler) SetMuted(muted bool) {
	s.mu.Lock()
	s.muted = muted
	s.mu.Unlock()
}

// Evaluate runs once per update cycle, on changed and unchanged passes alike:
// the reminder condition must be re-checked every cycle, not only on ticks.
func (s *Scheduler) Evaluate(recs []record.Record, delta registry.Delta, counts view.Counts, now time.Time) {
	s.notifier.Badge(counts)

	if delta.Changed && !delta.First && len(delta.NewIDs) > 0 {
		s.play(SoundNewRecords)
	}

	s.evaluateChime(recs, now)
	s.evaluateReminder(anySending(recs))
}

// evaluateChime fires at most one chime per pass: the first record whose
// announce time falls in the current bucket and whose id has not chimed yet.
func (s *Scheduler) evaluateChime(recs []record.Record, now time.Time) {
	cur := s.bucketOf(now)
	s.mu.Lock()
	var fire bool
	for _, r := range recs {
		if !r.AnnounceOK || s.bucketOf(r.AnnounceTime) != cur {
			continue
		}
		id := r.ID()
		if _, done := s.chimed[id]; done {
			continue
		}
		s.chimed[id] = struct{}{}
		fire = true
		break
	}
	s.mu.Unlock()
	if fire {
		s.play(SoundChime)
	}
}

// evaluateReminder starts the recurring reminder the cycle the condition
// appears and cancels it the cycle it disappears.
func (s *Scheduler) evaluateReminder(sending bool) {
	s.mu.Lock()
	running := s.reminderStop != nil
	switch {
	case sending && !running:
		stop := make(chan struct{})
		s.reminderStop = stop
		s.mu.Unlock()
		s.play(SoundReminder)
		go s.reminderLoop(stop)
		return
	case !sending && running:
		close(s.reminderStop)
		s.reminderStop = nil
	}
	s.mu.Unlock()
}

func (s *Scheduler) reminderLoop(stop chan struct{}) {
	ticker := time.NewTicker(s.reminderEvery)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.play(SoundReminder)
		}
	}
}

// Stop cancels the reminder timer, if running. Used on engine shutdown.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.reminderStop != nil {
		close(s.reminderStop)
		s.reminderStop = nil
	}
	s.mu.Unlock()
}

// ReminderActive reports whether the recurring reminder is currently armed.
func (s *Scheduler) ReminderActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reminderStop != nil
}

func (s *Scheduler) play(sound Sound) {
	s.mu.Lock()
	muted := s.muted
	s.mu.Unlock()
	if muted {
		return
	}
	s.notifier.Play(sound)
}

// bucketOf quantizes a timestamp into its minute-of-day bucket.
func (s *Scheduler) bucketOf(t time.Time) int {
	width := int(s.bucket.Minutes())
	if width <= 0 {
		width = int(DefaultBucket.Minutes())
	}
	return (t.Hour()*60 + t.Minute()) / width
}

func anySending(recs []record.Record) bool {
	for _, r := range recs {
		if record.IsSending(r.Status) {
			return true
		}
	}
	return false
}
