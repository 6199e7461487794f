// Package provider adapts the tournament platform's HTTP API. Each
// integration action maps to one endpoint; buffered actions are a
// single request/response, streaming actions hold a text/event-stream
// connection open and push progress frames until a terminal frame.
//
// All failures are classified onto the domain sentinel errors so
// callers never inspect HTTP details.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bhmc/ggbridge/internal/domain"
)

// ActionRequest addresses one action invocation.
type ActionRequest struct {
	EventID  int64
	Action   domain.ActionName
	Endpoint string
}

// Path resolves the endpoint template against the event ID.
func (r ActionRequest) Path() string {
	return strings.ReplaceAll(r.Endpoint, "{eventId}", strconv.FormatInt(r.EventID, 10))
}

// Stream yields progress frames from an in-flight streaming action.
// Next blocks until a frame arrives; after a terminal frame it returns
// io.EOF. Close releases the underlying connection and is safe to call
// while Next is blocked.
type Stream interface {
	Next() (domain.ProgressEvent, error)
	Close() error
}

// API is the provider collaborator the executor runs actions against.
type API interface {
	// InvokeAction performs a buffered action call and returns the
	// action's result payload.
	InvokeAction(ctx context.Context, req ActionRequest) (json.RawMessage, error)

	// StreamAction opens the progress stream for a streaming action.
	// The provider starts executing as soon as the connection is up.
	StreamAction(ctx context.Context, req ActionRequest) (Stream, error)
}

// RateLimitError reports provider throttling, carrying the wait the
// platform mandated via Retry-After.
type RateLimitError struct {
	Wait time.Duration
}

func (e *RateLimitError) Error() string {
	if e.Wait > 0 {
		return fmt.Sprintf("rate limited, retry after %s", e.Wait)
	}
	return "rate limited"
}

func (e *RateLimitError) Unwrap() error { return domain.ErrRateLimited }

// RetryAfter implements retry.Waiter.
func (e *RateLimitError) RetryAfter() time.Duration { return e.Wait }
