package events

import (
	"sync"
	"time"
)

// PassEvent summarizes one completed update pass for observers.
type PassEvent struct {
	At      time.Time `json:"at"`
	Located bool      `json:"located"`
	Changed bool      `json:"changed"`
	Records int       `json:"records"`
	NewIDs  int       `json:"new_ids"`
}

// Bus provides in-process pub/sub for pass events. Publishing never blocks;
// a subscriber that falls behind loses events.
type Bus struct {
	mu   sync.RWMutex
	subs []chan PassEvent
}

func NewBus() *Bus { return &Bus{} }

func (b *Bus) Subscribe() <-chan PassEvent {
	ch := make(chan PassEvent, 16)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, ch)
	return ch
}

func (b *Bus) Publish(ev PassEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
