// Package progress carries incremental status from an in-flight action
// to at most one observer. Delivery is best-effort: if nobody is
// listening, frames are dropped and the action carries on. The durable
// outcome lives in the action log, never here.
package progress

import (
	"errors"
	"sync"

	"bhmc/ggbridge/internal/domain"
)

// State is the lifecycle of one channel. Abandoned means the subscriber
// left before a terminal frame; the producing action is unaffected and
// its outcome is still recorded in the log.
type State string

const (
	StateIdle      State = "idle"
	StateStreaming State = "streaming"
	StateCompleted State = "completed"
	StateErrored   State = "errored"
	StateAbandoned State = "abandoned"
)

// ErrAlreadySubscribed is returned on a second concurrent subscribe;
// channels are strictly one-to-one.
var ErrAlreadySubscribed = errors.New("progress: channel already has a subscriber")

// subscriberBuffer absorbs bursts so Publish never waits on a slow
// reader. A full buffer drops the frame, same as an absent subscriber.
const subscriberBuffer = 64

// Channel is a single-producer, single-consumer, one-shot-terminal
// progress conduit. Publish never blocks; Subscribe may be called once;
// the stream ends after exactly one terminal frame.
type Channel struct {
	mu    sync.Mutex
	state State
	ch    chan domain.ProgressEvent
	ready chan struct{}
}

// NewChannel returns an idle channel ready for one subscriber.
func NewChannel() *Channel {
	return &Channel{state: StateIdle, ready: make(chan struct{})}
}

// Ready is closed once a subscriber attaches. A producer can wait on
// it (with its own deadline) so early frames are not dropped while the
// consumer is still wiring up.
func (c *Channel) Ready() <-chan struct{} {
	return c.ready
}

// Subscribe attaches the single consumer and returns its frame stream.
// The returned channel closes after a terminal frame (or Unsubscribe).
func (c *Channel) Subscribe() (<-chan domain.ProgressEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		return nil, ErrAlreadySubscribed
	}
	c.ch = make(chan domain.ProgressEvent, subscriberBuffer)
	c.state = StateStreaming
	close(c.ready)
	return c.ch, nil
}

// Publish sends a frame to the subscriber, if any. It never blocks:
// frames are dropped when nobody is attached, when the subscriber's
// buffer is full, or after a terminal frame has already been sent. A
// terminal frame closes the stream.
func (c *Channel) Publish(event domain.ProgressEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateStreaming {
		if event.Terminal() && (c.state == StateIdle || c.state == StateAbandoned) {
			// No subscriber ever came, or it left early; still record
			// how the stream ended.
			c.markTerminal(event)
		}
		return
	}

	select {
	case c.ch <- event:
	default:
		// Subscriber too slow; progress is best-effort.
	}

	if event.Terminal() {
		c.markTerminal(event)
		close(c.ch)
		c.ch = nil
	}
}

// Unsubscribe detaches the consumer before a terminal frame. Safe to
// call at any time, including after the stream already ended.
func (c *Channel) Unsubscribe() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateStreaming {
		return
	}
	c.state = StateAbandoned
	close(c.ch)
	c.ch = nil
}

// State reports the channel's lifecycle position.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Channel) markTerminal(event domain.ProgressEvent) {
	if event.Status == domain.ProgressError {
		c.state = StateErrored
	} else {
		c.state = StateCompleted
	}
}
