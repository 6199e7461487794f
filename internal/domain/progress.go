package domain

import "encoding/json"

// ProgressStatus is the lifecycle marker carried on every progress frame.
type ProgressStatus string

const (
	ProgressProcessing ProgressStatus = "processing"
	ProgressComplete   ProgressStatus = "complete"
	ProgressError      ProgressStatus = "error"
)

// ProgressEvent is one frame of streamed progress for a long-running
// action. It is transient: frames exist only for the lifetime of a
// single execution and are never persisted.
//
// Exactly one counter pair is populated, depending on what the action
// iterates over: player-based exports carry TotalPlayers/ProcessedPlayers,
// tournament-based imports carry TotalTournaments/ProcessedTournaments.
type ProgressEvent struct {
	TotalPlayers         *int `json:"totalPlayers,omitempty"`
	ProcessedPlayers     *int `json:"processedPlayers,omitempty"`
	TotalTournaments     *int `json:"totalTournaments,omitempty"`
	ProcessedTournaments *int `json:"processedTournaments,omitempty"`

	Status  ProgressStatus `json:"status"`
	Message string         `json:"message,omitempty"`

	// Result carries the action's final payload on a terminal frame.
	// The executor persists it verbatim as the log entry's details.
	Result json.RawMessage `json:"result,omitempty"`
}

// Terminal reports whether this frame ends the stream.
func (e ProgressEvent) Terminal() bool {
	return e.Status == ProgressComplete || e.Status == ProgressError
}
