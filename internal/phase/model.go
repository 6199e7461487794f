package phase

import (
	"sort"

	"bhmc/ggbridge/internal/domain"
	"bhmc/ggbridge/internal/intlog"
)

// Info is the derived workflow position for one event.
type Info struct {
	CurrentPhase     int
	IsPhaseComplete  bool
	CanAdvanceToNext bool

	// NextAction is the first action of the current phase without a
	// successful run; empty when the whole workflow is complete.
	NextAction domain.ActionName
}

// HasSucceeded reports whether any entry records a successful run of
// action. Success is monotonic: later failed re-runs never flip it
// back, and an action with only failed entries counts the same as one
// never run.
func HasSucceeded(entries []intlog.Entry, action domain.ActionName) bool {
	for _, e := range entries {
		if e.ActionName == action && e.IsSuccessful {
			return true
		}
	}
	return false
}

// Complete reports whether every action of p has a successful run.
func Complete(entries []intlog.Entry, p Phase) bool {
	for _, action := range p.Actions {
		if !HasSucceeded(entries, action) {
			return false
		}
	}
	return true
}

// nextAction returns the first action of p without a successful run.
func nextAction(entries []intlog.Entry, p Phase) domain.ActionName {
	for _, action := range p.Actions {
		if !HasSucceeded(entries, action) {
			return action
		}
	}
	return ""
}

// Derive computes the workflow position from log entries alone. It is
// pure and never fails: entries with unknown action names are simply
// never consulted, and any amount of malformed detail payload is
// irrelevant here.
//
// The current phase is the lowest-numbered incomplete phase, or the
// last phase once everything is complete. A later phase's incidental
// successes never skip an earlier incomplete phase.
func Derive(entries []intlog.Entry) Info {
	table := Table()

	for i, p := range table {
		if Complete(entries, p) {
			continue
		}
		info := Info{
			CurrentPhase:    p.Number,
			IsPhaseComplete: false,
			NextAction:      nextAction(entries, p),
		}
		if i > 0 {
			info.CanAdvanceToNext = Complete(entries, table[i-1])
		}
		return info
	}

	// Every phase complete: rest at the last phase.
	last := table[len(table)-1]
	info := Info{
		CurrentPhase:    last.Number,
		IsPhaseComplete: true,
	}
	if len(table) > 1 {
		info.CanAdvanceToNext = Complete(entries, table[len(table)-2])
	}
	return info
}

// DeriveAt layers a navigation override on top of Derive. The override
// is a pure view-layer value: it changes which phase is displayed and
// recomputes that phase's completeness, but NextAction always reflects
// the ground-truth derivation so the view never invents progress.
//
// An override outside the table falls back to the plain derivation.
func DeriveAt(entries []intlog.Entry, override int) Info {
	derived := Derive(entries)
	p, ok := Find(override)
	if !ok {
		return derived
	}

	complete := Complete(entries, p)
	info := Info{
		CurrentPhase:    p.Number,
		IsPhaseComplete: complete,
		NextAction:      derived.NextAction,
	}
	// Advancing out of the viewed phase requires the viewed phase
	// itself to be complete; the last phase has nowhere to go.
	if p.Number < len(Table()) {
		info.CanAdvanceToNext = complete
	}
	return info
}

// MostRecentRun returns the latest entry for action by ActionDate, or
// nil when the action has never been attempted. Entries are re-sorted
// here; storage order is not assumed.
func MostRecentRun(entries []intlog.Entry, action domain.ActionName) *intlog.Entry {
	var runs []intlog.Entry
	for _, e := range entries {
		if e.ActionName == action {
			runs = append(runs, e)
		}
	}
	if len(runs) == 0 {
		return nil
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].ActionDate.After(runs[j].ActionDate)
	})
	return &runs[0]
}
