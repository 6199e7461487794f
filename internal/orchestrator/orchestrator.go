// Package orchestrator composes the action log, the derived phase
// model, and the executor into the view and start operations the HTTP
// API and the dashboard are built on.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"bhmc/ggbridge/internal/domain"
	"bhmc/ggbridge/internal/executor"
	"bhmc/ggbridge/internal/intlog"
	"bhmc/ggbridge/internal/phase"
	"bhmc/ggbridge/internal/progress"
	"bhmc/ggbridge/internal/registry"
)

// ErrActionNotEnabled is returned when an action is started before the
// predecessor it requires has succeeded.
var ErrActionNotEnabled = errors.New("action is not enabled yet")

// ActionStatus is one action row in an event view.
type ActionStatus struct {
	Spec    registry.Spec
	Enabled bool

	// LastRun is the most recent log entry for this action, nil when
	// it has never been run.
	LastRun *intlog.Entry

	// ErrorCount summarizes the error messages carried in LastRun's
	// details. Zero when there is no run or the details carry none.
	ErrorCount int
}

// EventView is the derived workflow position of one event plus the
// status of every action in the viewed phase.
type EventView struct {
	EventID int64
	Phase   phase.Info
	Actions []ActionStatus
}

// StartResult is the outcome of starting an action. Buffered actions
// complete before Start returns and carry their log entry; streaming
// actions return the progress channel instead, with the entry written
// once the stream ends.
type StartResult struct {
	Entry    *intlog.Entry
	Progress *progress.Channel
}

type Orchestrator struct {
	repo   intlog.Repository
	exec   *executor.Executor
	logger zerolog.Logger
}

func New(repo intlog.Repository, exec *executor.Executor, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{repo: repo, exec: exec, logger: logger}
}

// View derives the event's position from its full log. A non-zero
// phaseOverride shows that phase instead of the derived one; an
// override outside the table falls back to the derived phase.
func (o *Orchestrator) View(ctx context.Context, eventID int64, phaseOverride int) (*EventView, error) {
	entries, err := o.repo.ListByEvent(eventID, "")
	if err != nil {
		return nil, err
	}

	var info phase.Info
	if phaseOverride == 0 {
		info = phase.Derive(entries)
	} else {
		info = phase.DeriveAt(entries, phaseOverride)
	}

	current, ok := phase.Find(info.CurrentPhase)
	if !ok {
		return nil, fmt.Errorf("orchestrator: derived phase %d is not in the table", info.CurrentPhase)
	}

	view := &EventView{EventID: eventID, Phase: info}
	for _, spec := range registry.ByPhase(current) {
		status := ActionStatus{
			Spec:    spec,
			Enabled: registry.Enabled(spec, entries),
			LastRun: phase.MostRecentRun(entries, spec.Name),
		}
		if status.LastRun != nil {
			status.ErrorCount = CountErrors(status.LastRun.Details)
		}
		view.Actions = append(view.Actions, status)
	}
	return view, nil
}

// Start runs an action for an event. Re-running an action that already
// succeeded is always allowed; an action gated on a predecessor that
// has not succeeded is refused.
func (o *Orchestrator) Start(ctx context.Context, eventID int64, name domain.ActionName) (*StartResult, error) {
	spec, err := registry.Lookup(name)
	if err != nil {
		return nil, err
	}

	entries, err := o.repo.ListByEvent(eventID, "")
	if err != nil {
		return nil, err
	}
	if !registry.Enabled(spec, entries) {
		return nil, fmt.Errorf("orchestrator: %s requires %s to succeed first: %w", spec.Name, spec.Requires, ErrActionNotEnabled)
	}

	o.logger.Info().
		Int64("event_id", eventID).
		Str("action", string(spec.Name)).
		Bool("streaming", spec.Streaming).
		Msg("starting action")

	if spec.Streaming {
		ch, err := o.exec.RunStreaming(ctx, eventID, name)
		if err != nil {
			return nil, err
		}
		return &StartResult{Progress: ch}, nil
	}

	entry, err := o.exec.RunBuffered(ctx, eventID, name)
	if err != nil {
		return nil, err
	}
	return &StartResult{Entry: &entry}, nil
}

// Logs returns the event's entries, newest first, optionally narrowed
// to one action.
func (o *Orchestrator) Logs(ctx context.Context, eventID int64, actionName domain.ActionName) ([]intlog.Entry, error) {
	return o.repo.ListByEvent(eventID, actionName)
}

// CountErrors totals the error messages in a run's details payload:
// the top-level errors array plus the errors of every round result.
// Empty or malformed details count as zero; a summary must never fail
// louder than the run it summarizes.
func CountErrors(details string) int {
	if details == "" {
		return 0
	}
	var payload struct {
		Errors       []json.RawMessage `json:"errors"`
		RoundResults []struct {
			Errors []json.RawMessage `json:"errors"`
		} `json:"roundResults"`
	}
	if err := json.Unmarshal([]byte(details), &payload); err != nil {
		return 0
	}
	n := len(payload.Errors)
	for _, r := range payload.RoundResults {
		n += len(r.Errors)
	}
	return n
}
