package progress

import (
	"errors"
	"sync"
)

// ErrOperationActive is returned when an action is started for an event
// that already has one running. Only one action may stream per event at
// a time; callers should retry once the current one finishes.
var ErrOperationActive = errors.New("progress: operation already in progress for event")

// Tracker hands out one live Channel per event. It does not run
// anything itself; the executor registers a channel when an action
// starts and releases it when the action's goroutine ends.
type Tracker struct {
	mu     sync.Mutex
	active map[int64]*Channel
}

func NewTracker() *Tracker {
	return &Tracker{active: make(map[int64]*Channel)}
}

// Start registers a fresh channel for the event. It fails if the event
// already has an active operation.
func (t *Tracker) Start(eventID int64) (*Channel, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.active[eventID]; ok {
		return nil, ErrOperationActive
	}
	ch := NewChannel()
	t.active[eventID] = ch
	return ch, nil
}

// Get returns the event's active channel, or nil when nothing is
// running.
func (t *Tracker) Get(eventID int64) *Channel {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active[eventID]
}

// Finish releases the event's slot. The channel itself survives for any
// subscriber still draining buffered frames.
func (t *Tracker) Finish(eventID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.active, eventID)
}

// ActiveEvents lists events with an operation in flight.
func (t *Tracker) ActiveEvents() []int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := make([]int64, 0, len(t.active))
	for id := range t.active {
		ids = append(ids, id)
	}
	return ids
}
