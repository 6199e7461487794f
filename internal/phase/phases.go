// Package phase derives workflow position from the integration action
// log. Nothing here is persisted: the current phase is recomputed from
// log entries on every call, so the view can never drift from what
// actually ran, even across crashes and retries.
package phase

import "bhmc/ggbridge/internal/domain"

// Phase is a fixed, ordered grouping of actions that must all succeed
// before the next phase is considered reachable.
type Phase struct {
	Number int
	Title  string

	// Actions in priority order. Within a phase the first action
	// without a successful run is the next one to run, so this list
	// doubles as the import sub-ordering for the Import Results phase.
	Actions []domain.ActionName
}

// Table returns the phase table in ascending order.
//
// The table is configuration: adding an action means adding it to a
// phase's list (and to the registry), not touching the derivation
// logic.
func Table() []Phase {
	return []Phase{
		{
			Number: 1,
			Title:  "Setup",
			Actions: []domain.ActionName{
				domain.ActionSyncEvent,
				domain.ActionExportRoster,
			},
		},
		{
			Number: 2,
			Title:  "Import Results",
			Actions: []domain.ActionName{
				domain.ActionImportScores,
				domain.ActionImportPoints,
				domain.ActionImportResults,
				domain.ActionImportSkins,
				domain.ActionImportProxies,
			},
		},
		{
			Number: 3,
			Title:  "Finalize",
			Actions: []domain.ActionName{
				domain.ActionImportLowScores,
				domain.ActionImportChampions,
				domain.ActionCloseEvent,
			},
		},
	}
}

// Find returns the phase with the given number, or false when the
// number is outside the table.
func Find(number int) (Phase, bool) {
	for _, p := range Table() {
		if p.Number == number {
			return p, true
		}
	}
	return Phase{}, false
}
