package matchsim

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Scanner line limits. Snapshot frames carry the full possession
// history, so data lines grow over the match.
const (
	streamLineBuffer = 64 * 1024
	streamLineMax    = 4 * 1024 * 1024
)

// streamTally counts frames seen on the live stream. The hub drops frames
// for slow readers, so the tally is a floor, not an exact count.
type streamTally struct {
	snapshots int
	alerts    int
}

// watchStream subscribes to the session stream and tallies frames until
// ctx ends or the server closes the connection.
func watchStream(ctx context.Context, c *client, sessionID string, tally *streamTally) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/sessions/"+sessionID+"/stream", http.NoBody)
	if err != nil {
		return fmt.Errorf("build stream request: %w", err)
	}
	resp, err := c.stream.Do(req)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("open stream: %s", readAPIError(resp))
	}

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, streamLineBuffer), streamLineMax)
	for sc.Scan() {
		switch strings.TrimSpace(sc.Text()) {
		case "event: snapshot":
			tally.snapshots++
		case "event: alert":
			tally.alerts++
		}
	}
	if ctx.Err() != nil {
		// Closed by the run winding down.
		return nil
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}
