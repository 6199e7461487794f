package intlog

import (
	"time"

	"bhmc/ggbridge/internal/domain"
)

// Entry is one recorded execution of an integration action.
//
// Entries are append-only: a re-run of the same action for the same
// event produces a new entry, never an update. The most recent run is
// the entry with the latest ActionDate; "successfully completed" for
// phase purposes means any entry with IsSuccessful set, regardless of
// later failed re-runs.
type Entry struct {
	// ID is the auto-increment primary key (assigned on append).
	ID int64

	// EventID identifies the club event this run applies to.
	EventID int64

	// ActionName is the integration action that was executed.
	ActionName domain.ActionName

	// ActionDate is when the run completed, or when it was attempted
	// if it failed.
	ActionDate time.Time

	// IsSuccessful records the run's outcome.
	IsSuccessful bool

	// Details is the action-specific result payload, serialized as
	// JSON text. It may be empty. Failed runs carry an errors array,
	// composite imports may nest roundResults[].errors arrays.
	Details string
}
