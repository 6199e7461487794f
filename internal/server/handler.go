package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"bhmc/ggbridge/internal/domain"
	"bhmc/ggbridge/internal/intlog"
	"bhmc/ggbridge/internal/orchestrator"
	"bhmc/ggbridge/internal/progress"
	"bhmc/ggbridge/internal/registry"
)

// defaultKeepalive is the idle interval between SSE comment frames,
// keeping proxies from reaping a quiet stream.
const defaultKeepalive = 15 * time.Second

// Handler carries the API's dependencies.
type Handler struct {
	orch   *orchestrator.Orchestrator
	logger zerolog.Logger

	// Keepalive overrides the SSE heartbeat interval; tests shorten it.
	Keepalive time.Duration
}

func NewHandler(orch *orchestrator.Orchestrator, logger zerolog.Logger) *Handler {
	return &Handler{orch: orch, logger: logger, Keepalive: defaultKeepalive}
}

// Routes builds the API surface.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /integration/events/{id}/logs", h.listLogs)
	mux.HandleFunc("GET /integration/events/{id}/phase", h.eventPhase)
	mux.HandleFunc("POST /integration/events/{id}/actions/{name}", h.startAction)
	mux.HandleFunc("GET /integration/events/{id}/actions/{name}/stream", h.streamAction)
	return h.logRequests(mux)
}

type entryResponse struct {
	ID           int64           `json:"id"`
	EventID      int64           `json:"eventId"`
	ActionName   string          `json:"actionName"`
	ActionDate   time.Time       `json:"actionDate"`
	IsSuccessful bool            `json:"isSuccessful"`
	Details      json.RawMessage `json:"details,omitempty"`
	ErrorCount   int             `json:"errorCount"`
}

func toEntryResponse(e intlog.Entry) entryResponse {
	return entryResponse{
		ID:           e.ID,
		EventID:      e.EventID,
		ActionName:   string(e.ActionName),
		ActionDate:   e.ActionDate,
		IsSuccessful: e.IsSuccessful,
		Details:      detailsJSON(e.Details),
		ErrorCount:   orchestrator.CountErrors(e.Details),
	}
}

// detailsJSON passes stored details through verbatim when they are
// valid JSON, and wraps anything else as a JSON string so a bad row
// cannot corrupt a response.
func detailsJSON(s string) json.RawMessage {
	if s == "" {
		return nil
	}
	if json.Valid([]byte(s)) {
		return json.RawMessage(s)
	}
	quoted, err := json.Marshal(s)
	if err != nil {
		return nil
	}
	return quoted
}

func (h *Handler) listLogs(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.eventID(w, r)
	if !ok {
		return
	}
	action := domain.ActionName(r.URL.Query().Get("action"))

	entries, err := h.orch.Logs(r.Context(), eventID, action)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"eventId": eventID, "entries": out})
}

type actionResponse struct {
	Name       string         `json:"name"`
	Phase      int            `json:"phase"`
	Streaming  bool           `json:"streaming"`
	Enabled    bool           `json:"enabled"`
	ErrorCount int            `json:"errorCount"`
	LastRun    *entryResponse `json:"lastRun,omitempty"`
}

func (h *Handler) eventPhase(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.eventID(w, r)
	if !ok {
		return
	}
	override := 0
	if raw := r.URL.Query().Get("phase"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "phase must be a number"})
			return
		}
		override = n
	}

	view, err := h.orch.View(r.Context(), eventID, override)
	if err != nil {
		h.writeError(w, err)
		return
	}

	actions := make([]actionResponse, 0, len(view.Actions))
	for _, a := range view.Actions {
		row := actionResponse{
			Name:       string(a.Spec.Name),
			Phase:      a.Spec.Phase,
			Streaming:  a.Spec.Streaming,
			Enabled:    a.Enabled,
			ErrorCount: a.ErrorCount,
		}
		if a.LastRun != nil {
			er := toEntryResponse(*a.LastRun)
			row.LastRun = &er
		}
		actions = append(actions, row)
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"eventId":          view.EventID,
		"currentPhase":     view.Phase.CurrentPhase,
		"isPhaseComplete":  view.Phase.IsPhaseComplete,
		"canAdvanceToNext": view.Phase.CanAdvanceToNext,
		"nextAction":       string(view.Phase.NextAction),
		"actions":          actions,
	})
}

func (h *Handler) startAction(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.eventID(w, r)
	if !ok {
		return
	}
	name := domain.ActionName(r.PathValue("name"))

	spec, err := registry.Lookup(name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if spec.Streaming {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "streaming action; use the stream endpoint",
		})
		return
	}

	res, err := h.orch.Start(r.Context(), eventID, name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toEntryResponse(*res.Entry))
}

func (h *Handler) streamAction(w http.ResponseWriter, r *http.Request) {
	eventID, ok := h.eventID(w, r)
	if !ok {
		return
	}
	name := domain.ActionName(r.PathValue("name"))

	spec, err := registry.Lookup(name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !spec.Streaming {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "buffered action; POST the action endpoint instead",
		})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "streaming unsupported"})
		return
	}

	res, err := h.orch.Start(r.Context(), eventID, name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	frames, err := res.Progress.Subscribe()
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(h.Keepalive)
	defer heartbeat.Stop()

	for {
		select {
		case frame, open := <-frames:
			if !open {
				return
			}
			payload, err := json.Marshal(frame)
			if err != nil {
				continue
			}
			if _, err := w.Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
				res.Progress.Unsubscribe()
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				res.Progress.Unsubscribe()
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			// The viewer left; the action keeps running and its
			// outcome lands in the log.
			res.Progress.Unsubscribe()
			return
		}
	}
}

func (h *Handler) eventID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "event id must be a positive number"})
		return 0, false
	}
	return id, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error().Err(err).Msg("writing response")
	}
}

// writeError maps domain failures onto HTTP statuses. The credential
// and throttling cases mirror what the provider told us; log storage
// trouble is a 503 because retrying locally can fix it.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, registry.ErrUnknownAction):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, orchestrator.ErrActionNotEnabled), errors.Is(err, progress.ErrOperationActive):
		status = http.StatusConflict
	case errors.Is(err, intlog.ErrUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrTransport), errors.Is(err, domain.ErrProvider), errors.Is(err, domain.ErrDecode):
		status = http.StatusBadGateway
	}
	h.writeJSON(w, status, map[string]any{"error": err.Error()})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Flush() {
	if f, ok := sw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sw, r)
		h.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.status).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
