package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"bhmc/ggbridge/internal/domain"
	"bhmc/ggbridge/internal/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() retry.Config {
	return retry.Config{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func testRequest() ActionRequest {
	return ActionRequest{
		EventID:  5,
		Action:   domain.ActionSyncEvent,
		Endpoint: "/events/{eventId}/sync",
	}
}

func TestActionRequest_Path(t *testing.T) {
	req := testRequest()
	assert.Equal(t, "/events/5/sync", req.Path())
}

func TestInvokeAction_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/events/5/sync", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write([]byte(`{"eventName":"Two Man Shamble","rounds":2}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", WithRetryConfig(fastRetry()))
	payload, err := c.InvokeAction(context.Background(), testRequest())
	require.NoError(t, err)
	assert.JSONEq(t, `{"eventName":"Two Man Shamble","rounds":2}`, string(payload))
}

func TestInvokeAction_Unauthorized(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "bad-key", WithRetryConfig(fastRetry()))
	_, err := c.InvokeAction(context.Background(), testRequest())
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, int32(1), calls.Load(), "auth failures must not be retried")
}

func TestInvokeAction_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"event has no rounds"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", WithRetryConfig(fastRetry()))
	_, err := c.InvokeAction(context.Background(), testRequest())
	require.ErrorIs(t, err, domain.ErrProvider)
	assert.Contains(t, err.Error(), "event has no rounds")
}

func TestInvokeAction_RetriesThrottling(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", WithRetryConfig(fastRetry()))
	payload, err := c.InvokeAction(context.Background(), testRequest())
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(payload))
	assert.Equal(t, int32(2), calls.Load())
}

func TestInvokeAction_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", WithRetryConfig(fastRetry()))
	_, err := c.InvokeAction(context.Background(), testRequest())
	require.ErrorIs(t, err, domain.ErrDecode)
}

func TestInvokeAction_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := NewClient(srv.URL, "test-key", WithRetryConfig(retry.Config{MaxAttempts: 1}))
	_, err := c.InvokeAction(context.Background(), testRequest())
	require.ErrorIs(t, err, domain.ErrTransport)
}

func TestInvokeAction_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key",
		WithTimeout(20*time.Millisecond),
		WithRetryConfig(retry.Config{MaxAttempts: 1}))
	_, err := c.InvokeAction(context.Background(), testRequest())
	require.ErrorIs(t, err, domain.ErrTransport)
}

func TestInvokeAction_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", WithRetryConfig(fastRetry()))
	payload, err := c.InvokeAction(context.Background(), testRequest())
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(payload))
}
