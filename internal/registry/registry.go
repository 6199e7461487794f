// Package registry maps action names to their execution shape: which
// phase owns them, which provider endpoint runs them, whether they
// stream progress, and which predecessor (if any) gates them.
//
// The table is data. The executor dispatches on it without branching
// per action name, so a new action is a new row, not new code.
package registry

import (
	"errors"
	"fmt"
	"sync"

	"bhmc/ggbridge/internal/domain"
	"bhmc/ggbridge/internal/intlog"
	"bhmc/ggbridge/internal/phase"
	"bhmc/ggbridge/internal/util"
)

// Spec describes how one action is invoked.
type Spec struct {
	Name domain.ActionName

	// Phase is the owning phase number in the phase table.
	Phase int

	// Endpoint is the provider path template; {eventId} is replaced
	// with the event being acted on.
	Endpoint string

	// Streaming selects the streaming executor path (SSE progress
	// frames) over the buffered request/response path.
	Streaming bool

	// Requires names a predecessor whose success gates this action.
	// Empty means the action is enabled whenever its phase is shown.
	Requires domain.ActionName
}

// ErrUnknownAction is returned by Lookup for names outside the table.
var ErrUnknownAction = errors.New("unknown action")

var (
	mu    sync.RWMutex
	specs = map[string]Spec{}
	order []domain.ActionName
)

// Register adds a spec to the table. Duplicate or malformed rows are
// programming errors, caught at init.
func Register(spec Spec) {
	key := util.NormalizeKey(string(spec.Name))
	if key == "" {
		panic("registry: empty action name")
	}
	if spec.Endpoint == "" {
		panic(fmt.Sprintf("registry: action %q has no endpoint", spec.Name))
	}
	if _, ok := phase.Find(spec.Phase); !ok {
		panic(fmt.Sprintf("registry: action %q references unknown phase %d", spec.Name, spec.Phase))
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := specs[key]; exists {
		panic(fmt.Sprintf("registry: action %q already registered", spec.Name))
	}
	specs[key] = spec
	order = append(order, spec.Name)
}

// Lookup resolves an action name (case-insensitively) to its spec.
func Lookup(name domain.ActionName) (Spec, error) {
	mu.RLock()
	defer mu.RUnlock()
	spec, ok := specs[util.NormalizeKey(string(name))]
	if !ok {
		return Spec{}, fmt.Errorf("registry: %w %q", ErrUnknownAction, name)
	}
	return spec, nil
}

// List returns every registered spec in registration order.
func List() []Spec {
	mu.RLock()
	defer mu.RUnlock()
	result := make([]Spec, 0, len(order))
	for _, name := range order {
		result = append(result, specs[util.NormalizeKey(string(name))])
	}
	return result
}

// ByPhase returns the registered specs owned by a phase, in the
// phase table's action order.
func ByPhase(p phase.Phase) []Spec {
	result := make([]Spec, 0, len(p.Actions))
	for _, name := range p.Actions {
		if spec, err := Lookup(name); err == nil {
			result = append(result, spec)
		}
	}
	return result
}

// Enabled reports whether spec may run right now given the log. An
// action with no Requires predecessor is always runnable once its
// phase is shown; otherwise the predecessor must have succeeded.
func Enabled(spec Spec, entries []intlog.Entry) bool {
	if spec.Requires == "" {
		return true
	}
	return phase.HasSucceeded(entries, spec.Requires)
}

// Reset clears the table. Intended for use in tests only.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	specs = map[string]Spec{}
	order = nil
}

// RegisterDefaults installs the standard action table. Called once at
// startup before any command runs.
func RegisterDefaults() {
	for _, spec := range defaultSpecs() {
		Register(spec)
	}
}

func defaultSpecs() []Spec {
	return []Spec{
		{Name: domain.ActionSyncEvent, Phase: 1, Endpoint: "/events/{eventId}/sync"},
		{Name: domain.ActionExportRoster, Phase: 1, Endpoint: "/events/{eventId}/export-roster-stream",
			Streaming: true, Requires: domain.ActionSyncEvent},
		{Name: domain.ActionImportScores, Phase: 2, Endpoint: "/events/{eventId}/import-scores-stream", Streaming: true},
		{Name: domain.ActionImportPoints, Phase: 2, Endpoint: "/events/{eventId}/import-points-stream", Streaming: true},
		{Name: domain.ActionImportResults, Phase: 2, Endpoint: "/events/{eventId}/import-results-stream", Streaming: true},
		{Name: domain.ActionImportSkins, Phase: 2, Endpoint: "/events/{eventId}/import-skins-stream", Streaming: true},
		{Name: domain.ActionImportProxies, Phase: 2, Endpoint: "/events/{eventId}/import-proxies-stream", Streaming: true},
		{Name: domain.ActionImportLowScores, Phase: 3, Endpoint: "/events/{eventId}/import-low-scores"},
		{Name: domain.ActionImportChampions, Phase: 3, Endpoint: "/events/{eventId}/import-champions"},
		{Name: domain.ActionCloseEvent, Phase: 3, Endpoint: "/events/{eventId}/close"},
	}
}
