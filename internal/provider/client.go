package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bhmc/ggbridge/internal/domain"
	"bhmc/ggbridge/internal/retry"

	"github.com/rs/zerolog"
)

const userAgent = "ggbridge/0.1.0"

// maxErrorBody caps how much of an error response we read for the message.
const maxErrorBody = 8 << 10

// Client implements API against the tournament platform's REST/SSE
// endpoints.
type Client struct {
	baseURL string
	apiKey  string
	logger  zerolog.Logger
	retry   retry.Config

	// buffered carries the configured per-call timeout; streaming has
	// no overall deadline, the stream lives until its terminal frame.
	buffered  *http.Client
	streaming *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout bounds each buffered provider call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.buffered.Timeout = d }
}

// WithLogger attaches a structured logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithRetryConfig overrides the retry policy for buffered calls.
func WithRetryConfig(cfg retry.Config) Option {
	return func(c *Client) { c.retry = cfg }
}

// NewClient creates a provider client for the given base URL,
// authenticating every request with the API key.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		logger:    zerolog.Nop(),
		retry:     retry.DefaultConfig(),
		buffered:  &http.Client{Timeout: 30 * time.Second},
		streaming: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// InvokeAction performs a buffered action call. Transport failures and
// throttling are retried with backoff; provider rejections and
// authentication failures are not.
func (c *Client) InvokeAction(ctx context.Context, req ActionRequest) (json.RawMessage, error) {
	var payload json.RawMessage

	err := retry.Do(ctx, c.retry, shouldRetry, func() error {
		var attemptErr error
		payload, attemptErr = c.invokeOnce(ctx, req)
		return attemptErr
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *Client) invokeOnce(ctx context.Context, req ActionRequest) (json.RawMessage, error) {
	httpReq, err := c.newRequest(ctx, http.MethodPost, req.Path(), "application/json")
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("action", string(req.Action)).
		Int64("event_id", req.EventID).
		Str("path", req.Path()).
		Msg("invoking provider action")

	resp, err := c.buffered.Do(httpReq)
	if err != nil {
		return nil, classifyTransport(req, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(req, resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("provider: %s: reading response: %w", req.Action, domain.ErrTransport)
	}
	if len(body) == 0 {
		return json.RawMessage(`{}`), nil
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("provider: %s: %w", req.Action, domain.ErrDecode)
	}
	return json.RawMessage(body), nil
}

// StreamAction opens the progress stream for a streaming action. The
// caller owns the returned Stream and must Close it.
func (c *Client) StreamAction(ctx context.Context, req ActionRequest) (Stream, error) {
	httpReq, err := c.newRequest(ctx, http.MethodGet, req.Path(), "text/event-stream")
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("action", string(req.Action)).
		Int64("event_id", req.EventID).
		Msg("opening provider stream")

	resp, err := c.streaming.Do(httpReq)
	if err != nil {
		return nil, classifyTransport(req, err)
	}
	if err := classifyStatus(req, resp); err != nil {
		resp.Body.Close()
		return nil, err
	}

	return newFrameReader(resp.Body), nil
}

func (c *Client) newRequest(ctx context.Context, method, path, accept string) (*http.Request, error) {
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("provider: building request for %s: %w", path, err)
	}
	httpReq.Header.Set("Accept", accept)
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	return httpReq, nil
}

// shouldRetry retries transport failures and throttling only; provider
// rejections, auth failures and malformed payloads are final.
func shouldRetry(err error) bool {
	return errors.Is(err, domain.ErrTransport) || errors.Is(err, domain.ErrRateLimited)
}

func classifyTransport(req ActionRequest, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("provider: %s: %w: %w", req.Action, domain.ErrTransport, err)
}

// classifyStatus maps a non-success response onto the error taxonomy.
func classifyStatus(req ActionRequest, resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("provider: %s: %w", req.Action, domain.ErrUnauthorized)
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{Wait: retryAfter(resp)}
	case resp.StatusCode >= 400:
		msg := errorMessage(resp)
		return fmt.Errorf("provider: %s: %w: %s", req.Action, domain.ErrProvider, msg)
	}
	return nil
}

func retryAfter(resp *http.Response) time.Duration {
	seconds, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// errorMessage pulls a human-readable message out of an error response
// body, falling back to the HTTP status line.
func errorMessage(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Error != "" {
			return parsed.Error
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	return fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}
