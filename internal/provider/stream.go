package provider

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"bhmc/ggbridge/internal/domain"
)

// frameReader decodes a text/event-stream body into ProgressEvents.
// Frames are `data:`-prefixed JSON, separated by blank lines; comment
// lines (leading ':') are keepalives and are skipped.
type frameReader struct {
	body     io.ReadCloser
	scanner  *bufio.Scanner
	terminal bool
}

func newFrameReader(body io.ReadCloser) *frameReader {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &frameReader{body: body, scanner: scanner}
}

// Next blocks until the provider pushes the next frame. After a
// terminal frame has been delivered it returns io.EOF. A connection
// that drops before the terminal frame surfaces as a transport error:
// the provider may still be executing, and completion must then be
// discovered from the action log, not the stream.
func (r *frameReader) Next() (domain.ProgressEvent, error) {
	if r.terminal {
		return domain.ProgressEvent{}, io.EOF
	}

	var data strings.Builder
	for r.scanner.Scan() {
		line := r.scanner.Text()

		switch {
		case line == "":
			if data.Len() == 0 {
				continue // separator before any data line
			}
			event, err := decodeFrame(data.String())
			if err != nil {
				return domain.ProgressEvent{}, err
			}
			if event.Terminal() {
				r.terminal = true
			}
			return event, nil
		case strings.HasPrefix(line, ":"):
			continue // keepalive comment
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		default:
			// Unknown SSE fields (event:, id:, retry:) are ignored.
		}
	}

	if err := r.scanner.Err(); err != nil {
		return domain.ProgressEvent{}, fmt.Errorf("provider: reading stream: %w: %w", domain.ErrTransport, err)
	}
	return domain.ProgressEvent{}, fmt.Errorf("provider: stream ended before terminal frame: %w", domain.ErrTransport)
}

// Close releases the underlying connection.
func (r *frameReader) Close() error {
	return r.body.Close()
}

func decodeFrame(data string) (domain.ProgressEvent, error) {
	var event domain.ProgressEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return domain.ProgressEvent{}, fmt.Errorf("provider: %w: %w", domain.ErrDecode, err)
	}
	return event, nil
}
