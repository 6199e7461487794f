// Package executor runs integration actions against the tournament
// provider and records every run in the action log. It owns the
// invariant that one invocation produces at most one log entry, and
// that an authorization failure produces none at all.
package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"bhmc/ggbridge/internal/domain"
	"bhmc/ggbridge/internal/intlog"
	"bhmc/ggbridge/internal/progress"
	"bhmc/ggbridge/internal/provider"
	"bhmc/ggbridge/internal/registry"
)

// Executor dispatches actions to the provider and appends their
// outcomes to the log.
type Executor struct {
	api     provider.API
	repo    intlog.Repository
	tracker *progress.Tracker
	logger  zerolog.Logger
}

func New(api provider.API, repo intlog.Repository, tracker *progress.Tracker, logger zerolog.Logger) *Executor {
	return &Executor{api: api, repo: repo, tracker: tracker, logger: logger}
}

// RunBuffered executes a non-streaming action and blocks until the
// provider answers. The returned entry is the record appended for this
// run; on an authorization failure nothing is appended and the zero
// entry is returned, since a rejected credential says nothing about
// the event's state.
func (e *Executor) RunBuffered(ctx context.Context, eventID int64, name domain.ActionName) (intlog.Entry, error) {
	spec, err := registry.Lookup(name)
	if err != nil {
		return intlog.Entry{}, err
	}
	if spec.Streaming {
		return intlog.Entry{}, fmt.Errorf("executor: %s is a streaming action", name)
	}

	req := provider.ActionRequest{EventID: eventID, Action: name, Endpoint: spec.Endpoint}
	payload, err := e.api.InvokeAction(ctx, req)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return intlog.Entry{}, err
		}
		entry := e.record(eventID, name, false, failureDetails(err.Error()))
		return entry, err
	}

	entry := e.record(eventID, name, true, string(payload))
	return entry, nil
}

// RunStreaming opens a streaming action and returns its progress
// channel before the first frame arrives, so the caller can subscribe
// without racing the relay. The provider starts executing as soon as
// the stream is up; the relay then runs to the terminal frame and
// appends the log entry regardless of whether anyone is watching.
//
// The stream is detached from ctx once open: an abandoned subscriber
// must not abort an action the provider is already performing.
func (e *Executor) RunStreaming(ctx context.Context, eventID int64, name domain.ActionName) (*progress.Channel, error) {
	spec, err := registry.Lookup(name)
	if err != nil {
		return nil, err
	}
	if !spec.Streaming {
		return nil, fmt.Errorf("executor: %s is not a streaming action", name)
	}

	ch, err := e.tracker.Start(eventID)
	if err != nil {
		return nil, err
	}

	req := provider.ActionRequest{EventID: eventID, Action: name, Endpoint: spec.Endpoint}
	stream, err := e.api.StreamAction(context.WithoutCancel(ctx), req)
	if err != nil {
		e.tracker.Finish(eventID)
		if errors.Is(err, domain.ErrUnauthorized) {
			return nil, err
		}
		e.record(eventID, name, false, failureDetails(err.Error()))
		return nil, err
	}

	go e.relay(eventID, name, stream, ch)
	return ch, nil
}

// subscriberGrace is how long the relay holds off reading the stream
// so the caller can subscribe without losing the first frames. After
// it expires the relay proceeds and frames are dropped unseen.
const subscriberGrace = time.Second

// relay pumps frames from the provider stream into the progress
// channel and records the run once the stream ends.
func (e *Executor) relay(eventID int64, name domain.ActionName, stream provider.Stream, ch *progress.Channel) {
	defer e.tracker.Finish(eventID)
	defer stream.Close()

	select {
	case <-ch.Ready():
	case <-time.After(subscriberGrace):
	}

	var last domain.ProgressEvent
	sawTerminal := false
	for {
		frame, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			// The stream broke mid-flight; the provider's side of the
			// action is in an unknown state, so the run is a failure.
			ch.Publish(domain.ProgressEvent{Status: domain.ProgressError, Message: err.Error()})
			e.record(eventID, name, false, failureDetails(err.Error()))
			return
		}
		ch.Publish(frame)
		if frame.Terminal() {
			last = frame
			sawTerminal = true
		}
	}

	if !sawTerminal {
		ch.Publish(domain.ProgressEvent{Status: domain.ProgressError, Message: "stream ended without a terminal frame"})
		e.record(eventID, name, false, failureDetails("stream ended without a terminal frame"))
		return
	}

	success := last.Status == domain.ProgressComplete
	details := string(last.Result)
	if !success && details == "" {
		details = failureDetails(last.Message)
	}
	e.record(eventID, name, success, details)
}

// record appends one run to the log. An append failure after a failed
// provider call means the log no longer reflects provider state, which
// is the one condition the operator must hear about loudly.
func (e *Executor) record(eventID int64, name domain.ActionName, ok bool, details string) intlog.Entry {
	entry := intlog.Entry{
		EventID:      eventID,
		ActionName:   name,
		IsSuccessful: ok,
		Details:      details,
	}
	if err := e.repo.Append(&entry); err != nil {
		evt := e.logger.Error().
			Err(err).
			Int64("event_id", eventID).
			Str("action", string(name)).
			Bool("successful", ok)
		if ok {
			evt.Msg("action succeeded but its run could not be recorded")
		} else {
			evt.Msg("failed action run could not be recorded; log has diverged from provider state")
		}
	}
	return entry
}

func failureDetails(message string) string {
	if message == "" {
		message = "action failed"
	}
	b, err := json.Marshal(struct {
		Errors []string `json:"errors"`
	}{Errors: []string{message}})
	if err != nil {
		return `{"errors":["action failed"]}`
	}
	return string(b)
}
