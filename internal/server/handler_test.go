package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"bhmc/ggbridge/internal/domain"
	"bhmc/ggbridge/internal/executor"
	"bhmc/ggbridge/internal/intlog"
	"bhmc/ggbridge/internal/orchestrator"
	"bhmc/ggbridge/internal/progress"
	"bhmc/ggbridge/internal/provider"
	"bhmc/ggbridge/internal/registry"
)

type memRepo struct {
	mu      sync.Mutex
	entries []intlog.Entry
}

func (r *memRepo) Append(entry *intlog.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = int64(len(r.entries) + 1)
	if entry.ActionDate.IsZero() {
		entry.ActionDate = time.Now().UTC()
	}
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *memRepo) ListByEvent(eventID int64, actionName domain.ActionName) ([]intlog.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []intlog.Entry
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if e.EventID == eventID && (actionName == "" || e.ActionName == actionName) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memRepo) DeleteOlderThan(time.Duration) (int64, error) { return 0, nil }
func (r *memRepo) Close() error                                 { return nil }

type stubAPI struct {
	invokeResult json.RawMessage
	invokeErr    error
	frames       []domain.ProgressEvent
	streamErr    error
}

func (a *stubAPI) InvokeAction(context.Context, provider.ActionRequest) (json.RawMessage, error) {
	return a.invokeResult, a.invokeErr
}

func (a *stubAPI) StreamAction(context.Context, provider.ActionRequest) (provider.Stream, error) {
	if a.streamErr != nil {
		return nil, a.streamErr
	}
	return &stubStream{frames: a.frames}, nil
}

type stubStream struct {
	frames []domain.ProgressEvent
	idx    int
	done   bool
}

func (s *stubStream) Next() (domain.ProgressEvent, error) {
	if s.done || s.idx >= len(s.frames) {
		return domain.ProgressEvent{}, io.EOF
	}
	f := s.frames[s.idx]
	s.idx++
	if f.Terminal() {
		s.done = true
	}
	return f, nil
}

func (s *stubStream) Close() error { return nil }

func newTestHandler(t *testing.T, api provider.API, repo intlog.Repository) *Handler {
	t.Helper()
	registry.Reset()
	registry.RegisterDefaults()
	t.Cleanup(func() {
		registry.Reset()
		registry.RegisterDefaults()
	})
	exec := executor.New(api, repo, progress.NewTracker(), zerolog.Nop())
	orch := orchestrator.New(repo, exec, zerolog.Nop())
	return NewHandler(orch, zerolog.Nop())
}

func doRequest(h *Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestPhaseEndpoint_FreshEvent(t *testing.T) {
	h := newTestHandler(t, &stubAPI{}, &memRepo{})

	rec := doRequest(h, http.MethodGet, "/integration/events/5/phase")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["currentPhase"] != float64(1) {
		t.Fatalf("currentPhase = %v, want 1", body["currentPhase"])
	}
	if body["nextAction"] != string(domain.ActionSyncEvent) {
		t.Fatalf("nextAction = %v", body["nextAction"])
	}
	actions, ok := body["actions"].([]any)
	if !ok || len(actions) != 2 {
		t.Fatalf("actions = %v, want 2 rows", body["actions"])
	}
}

func TestPhaseEndpoint_OverrideParameter(t *testing.T) {
	repo := &memRepo{}
	for _, a := range []domain.ActionName{domain.ActionSyncEvent, domain.ActionExportRoster} {
		repo.Append(&intlog.Entry{EventID: 5, ActionName: a, IsSuccessful: true})
	}
	h := newTestHandler(t, &stubAPI{}, repo)

	rec := doRequest(h, http.MethodGet, "/integration/events/5/phase?phase=3")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["currentPhase"] != float64(3) {
		t.Fatalf("currentPhase = %v, want 3", body["currentPhase"])
	}

	rec = doRequest(h, http.MethodGet, "/integration/events/5/phase?phase=nope")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestPhaseEndpoint_BadEventID(t *testing.T) {
	h := newTestHandler(t, &stubAPI{}, &memRepo{})

	rec := doRequest(h, http.MethodGet, "/integration/events/zero/phase")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestLogsEndpoint_ReturnsEntriesWithErrorCounts(t *testing.T) {
	repo := &memRepo{}
	repo.Append(&intlog.Entry{EventID: 5, ActionName: domain.ActionSyncEvent, IsSuccessful: true, Details: `{"synced":true}`})
	repo.Append(&intlog.Entry{
		EventID: 5, ActionName: domain.ActionExportRoster,
		Details: `{"errors":["a"],"roundResults":[{"errors":["b"]}]}`,
	})
	h := newTestHandler(t, &stubAPI{}, repo)

	rec := doRequest(h, http.MethodGet, "/integration/events/5/logs")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Entries []struct {
			ActionName   string          `json:"actionName"`
			IsSuccessful bool            `json:"isSuccessful"`
			Details      json.RawMessage `json:"details"`
			ErrorCount   int             `json:"errorCount"`
		} `json:"entries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(body.Entries))
	}
	// Newest first.
	if body.Entries[0].ActionName != string(domain.ActionExportRoster) {
		t.Fatalf("first entry = %s", body.Entries[0].ActionName)
	}
	if body.Entries[0].ErrorCount != 2 {
		t.Fatalf("errorCount = %d, want 2", body.Entries[0].ErrorCount)
	}

	rec = doRequest(h, http.MethodGet, "/integration/events/5/logs?action=Sync+Event")
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode filtered: %v", err)
	}
	if len(body.Entries) != 1 || body.Entries[0].ActionName != string(domain.ActionSyncEvent) {
		t.Fatalf("filtered entries = %+v", body.Entries)
	}
}

func TestStartEndpoint_BufferedSuccess(t *testing.T) {
	repo := &memRepo{}
	h := newTestHandler(t, &stubAPI{invokeResult: json.RawMessage(`{"synced":true}`)}, repo)

	rec := doRequest(h, http.MethodPost, "/integration/events/5/actions/Sync%20Event")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["isSuccessful"] != true {
		t.Fatalf("isSuccessful = %v", body["isSuccessful"])
	}
	entries, _ := repo.ListByEvent(5, "")
	if len(entries) != 1 {
		t.Fatalf("log entries = %d, want 1", len(entries))
	}
}

func TestStartEndpoint_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		api  *stubAPI
		path string
		want int
	}{
		{"unknown action", &stubAPI{}, "/integration/events/5/actions/Do%20Magic", http.StatusNotFound},
		{"streaming action rejected", &stubAPI{}, "/integration/events/5/actions/Import%20Scores", http.StatusBadRequest},
		{"unauthorized", &stubAPI{invokeErr: domain.ErrUnauthorized}, "/integration/events/5/actions/Sync%20Event", http.StatusUnauthorized},
		{"provider down", &stubAPI{invokeErr: domain.ErrTransport}, "/integration/events/5/actions/Sync%20Event", http.StatusBadGateway},
		{"rate limited", &stubAPI{invokeErr: &provider.RateLimitError{Wait: time.Second}}, "/integration/events/5/actions/Sync%20Event", http.StatusTooManyRequests},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &memRepo{}
			h := newTestHandler(t, tt.api, repo)
			rec := doRequest(h, http.MethodPost, tt.path)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestStartEndpoint_UnauthorizedLeavesNoEntry(t *testing.T) {
	repo := &memRepo{}
	h := newTestHandler(t, &stubAPI{invokeErr: domain.ErrUnauthorized}, repo)

	doRequest(h, http.MethodPost, "/integration/events/5/actions/Sync%20Event")
	entries, _ := repo.ListByEvent(5, "")
	if len(entries) != 0 {
		t.Fatalf("log entries = %d, want 0", len(entries))
	}
}

func TestStreamEndpoint_RelaysFramesAsSSE(t *testing.T) {
	repo := &memRepo{}
	repo.Append(&intlog.Entry{EventID: 5, ActionName: domain.ActionSyncEvent, IsSuccessful: true})
	repo.Append(&intlog.Entry{EventID: 5, ActionName: domain.ActionExportRoster, IsSuccessful: true})

	total, done := 2, 2
	api := &stubAPI{frames: []domain.ProgressEvent{
		{Status: domain.ProgressProcessing, TotalTournaments: &total, ProcessedTournaments: &done},
		{Status: domain.ProgressComplete, Result: json.RawMessage(`{"imported":2}`)},
	}}
	h := newTestHandler(t, api, repo)

	rec := doRequest(h, http.MethodGet, "/integration/events/5/actions/Import%20Scores/stream")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	var frames []domain.ProgressEvent
	for _, line := range strings.Split(rec.Body.String(), "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var f domain.ProgressEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &f); err != nil {
			t.Fatalf("bad frame %q: %v", line, err)
		}
		frames = append(frames, f)
	}
	if len(frames) != 2 {
		t.Fatalf("frames = %d, want 2", len(frames))
	}
	if frames[1].Status != domain.ProgressComplete {
		t.Fatalf("last frame status = %q", frames[1].Status)
	}

	// The terminal result is persisted by the relay just after the
	// stream closes; give it a moment.
	deadline := time.Now().Add(2 * time.Second)
	for {
		entries, _ := repo.ListByEvent(5, domain.ActionImportScores)
		if len(entries) == 1 {
			if !entries[0].IsSuccessful || entries[0].Details != `{"imported":2}` {
				t.Fatalf("entries = %+v", entries)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("run was not recorded, entries = %+v", entries)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestStreamEndpoint_GatedActionConflict(t *testing.T) {
	h := newTestHandler(t, &stubAPI{}, &memRepo{})

	rec := doRequest(h, http.MethodGet, "/integration/events/5/actions/Export%20Roster/stream")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409 (body %s)", rec.Code, rec.Body.String())
	}
}

func TestStreamEndpoint_BufferedActionRejected(t *testing.T) {
	h := newTestHandler(t, &stubAPI{}, &memRepo{})

	rec := doRequest(h, http.MethodGet, "/integration/events/5/actions/Sync%20Event/stream")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	h := newTestHandler(t, &stubAPI{}, &memRepo{})

	rec := doRequest(h, http.MethodGet, "/healthz")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
}
