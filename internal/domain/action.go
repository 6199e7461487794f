package domain

// ActionName identifies one integration action against the tournament
// platform. The set is closed: the phase table, the action registry and
// the HTTP routes all share these exact strings, so adding an action
// means adding a constant here and a row to the registry.
type ActionName string

const (
	ActionSyncEvent       ActionName = "Sync Event"
	ActionExportRoster    ActionName = "Export Roster"
	ActionImportScores    ActionName = "Import Scores"
	ActionImportPoints    ActionName = "Import Points"
	ActionImportResults   ActionName = "Import Results"
	ActionImportSkins     ActionName = "Import Skins"
	ActionImportProxies   ActionName = "Import Proxies"
	ActionImportLowScores ActionName = "Import Low Scores"
	ActionImportChampions ActionName = "Import Champions"
	ActionCloseEvent      ActionName = "Close Event"
)

// KnownActions lists every action name in declaration order.
func KnownActions() []ActionName {
	return []ActionName{
		ActionSyncEvent,
		ActionExportRoster,
		ActionImportScores,
		ActionImportPoints,
		ActionImportResults,
		ActionImportSkins,
		ActionImportProxies,
		ActionImportLowScores,
		ActionImportChampions,
		ActionCloseEvent,
	}
}

// IsKnownAction reports whether name is part of the closed action set.
func IsKnownAction(name ActionName) bool {
	for _, a := range KnownActions() {
		if a == name {
			return true
		}
	}
	return false
}
