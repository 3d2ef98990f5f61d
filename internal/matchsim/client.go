package matchsim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tactabot/regista/internal/domain/event"
)

// errorBodyLimit caps how much of an error response gets read.
const errorBodyLimit = 4 * 1024

// client is a thin JSON client over the engine's REST surface. Regular
// calls run under a per-request timeout; the stream connection carries
// none, its lifetime belongs to the caller's context.
type client struct {
	http   *http.Client
	stream *http.Client
	base   string
}

func newClient(base string, timeout time.Duration) *client {
	return &client{
		http:   &http.Client{Timeout: timeout},
		stream: &http.Client{},
		base:   strings.TrimRight(base, "/"),
	}
}

func (c *client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", path, readAPIError(resp))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("GET %s: decode: %w", path, err)
	}
	return nil
}

func (c *client) postJSON(ctx context.Context, path string, body, out interface{}, want int) error {
	var rd io.Reader = http.NoBody
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != want {
		return fmt.Errorf("POST %s: %s", path, readAPIError(resp))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("POST %s: decode: %w", path, err)
	}
	return nil
}

// readAPIError renders the engine's error envelope, falling back to the
// raw status line.
func readAPIError(resp *http.Response) string {
	var e apiError
	if err := json.NewDecoder(io.LimitReader(resp.Body, errorBodyLimit)).Decode(&e); err == nil && e.Code != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Code)
	}
	return resp.Status
}

func (c *client) createSession(ctx context.Context, id string) (sessionInfo, error) {
	var info sessionInfo
	err := c.postJSON(ctx, "/sessions", map[string]string{"id": id}, &info, http.StatusCreated)
	return info, err
}

func (c *client) sendEvent(ctx context.Context, sessionID string, ev event.TaggedEvent) (eventAck, error) {
	var ack eventAck
	err := c.postJSON(ctx, "/sessions/"+sessionID+"/events", ev, &ack, http.StatusOK)
	return ack, err
}

func (c *client) state(ctx context.Context, sessionID string) (stateReport, error) {
	var view stateReport
	err := c.getJSON(ctx, "/sessions/"+sessionID+"/state", &view)
	return view, err
}

func (c *client) chains(ctx context.Context, sessionID string) (chainReport, error) {
	var view chainReport
	err := c.getJSON(ctx, "/sessions/"+sessionID+"/chains", &view)
	return view, err
}

func (c *client) predictions(ctx context.Context, sessionID string) ([]prediction, error) {
	var preds []prediction
	err := c.getJSON(ctx, "/sessions/"+sessionID+"/predictions", &preds)
	return preds, err
}

func (c *client) patterns(ctx context.Context, sessionID string) (learningReport, error) {
	var rep learningReport
	err := c.getJSON(ctx, "/sessions/"+sessionID+"/patterns", &rep)
	return rep, err
}
