package sim

import (
	"sort"

	"github.com/MTorner/GemeloVital/server/internal/events"
)

// pendingEvent decorates a ScheduledEvent with its insertion sequence so that
// ties on ScheduledTime drain in FIFO order. Deterministic replay of an
// identical event stream depends on this.
type pendingEvent struct {
	event events.ScheduledEvent
	seq   uint64
}

// EventScheduler holds pending external stimuli ordered by game time.
type EventScheduler struct {
	pending []pendingEvent
	known   map[string]bool // ids ever accepted; re-scheduling is rejected
	nextSeq uint64
}

// NewEventScheduler creates an empty scheduler.
func NewEventScheduler() *EventScheduler {
	return &EventScheduler{
		known: make(map[string]bool),
	}
}

// Schedule inserts an event keeping ascending ScheduledTime order.
// Scheduling a known id again is a silent no-op (idempotency guarantee for
// retried client requests); the return value reports acceptance.
func (s *EventScheduler) Schedule(ev events.ScheduledEvent) bool {
	if ev.ID == "" || s.known[ev.ID] {
		return false
	}
	s.known[ev.ID] = true

	pe := pendingEvent{event: ev, seq: s.nextSeq}
	s.nextSeq++

	// Insert before the first strictly-later entry; equal timestamps keep
	// insertion order because we search past them.
	idx := sort.Search(len(s.pending), func(i int) bool {
		return s.pending[i].event.ScheduledTime > ev.ScheduledTime
	})
	s.pending = append(s.pending, pendingEvent{})
	copy(s.pending[idx+1:], s.pending[idx:])
	s.pending[idx] = pe
	return true
}

// DrainDue removes and returns every event with ScheduledTime <= gameTimeNow,
// in stored order. Events scheduled in the past are delivered on the very
// next call; nothing is silently dropped.
func (s *EventScheduler) DrainDue(gameTimeNow float64) []events.ScheduledEvent {
	cut := 0
	for cut < len(s.pending) && s.pending[cut].event.ScheduledTime <= gameTimeNow {
		cut++
	}
	if cut == 0 {
		return nil
	}

	due := make([]events.ScheduledEvent, cut)
	for i := 0; i < cut; i++ {
		due[i] = s.pending[i].event
	}
	s.pending = append(s.pending[:0], s.pending[cut:]...)
	return due
}

// Len returns the number of pending events.
func (s *EventScheduler) Len() int {
	return len(s.pending)
}
