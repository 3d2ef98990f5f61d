package predictor

import (
	"context"
	"encoding/json"

	"github.com/tactabot/regista/pkg/logger"
)

// Store is the key-value port snapshots persist through. Implementations
// live with the adapters; the predictor only needs blob get/set/delete.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// snapshot is the persisted wire form of the predictor state.
type snapshot struct {
	Patterns       map[string]*EventPattern `json:"patterns"`
	Recent         []string                 `json:"recentSequence"`
	WindowSize     int                      `json:"windowSize"`
	MinOccurrences int                      `json:"minOccurrences"`
	Total          int64                    `json:"totalEventsProcessed"`
}

// Persist writes the current state to the store. Best-effort: failures
// are logged and swallowed, never surfaced to event processing.
func (p *Predictor) Persist(ctx context.Context) {
	if p.store == nil {
		return
	}
	blob, err := json.Marshal(snapshot{
		Patterns:       p.patterns,
		Recent:         p.recent,
		WindowSize:     p.window,
		MinOccurrences: p.minOcc,
		Total:          p.total,
	})
	if err != nil {
		p.log.Debug(ctx, "predictor snapshot encode failed", logger.Error(err))
		return
	}
	if err := p.store.Set(ctx, p.key, blob); err != nil {
		p.log.Debug(ctx, "predictor snapshot save failed",
			logger.String("key", p.key), logger.Error(err))
	}
}

// Load restores a snapshot from the store. Missing or malformed data
// leaves the predictor fresh; learning tunables stay as configured.
func (p *Predictor) Load(ctx context.Context) {
	if p.store == nil {
		return
	}
	blob, err := p.store.Get(ctx, p.key)
	if err != nil || len(blob) == 0 {
		return
	}

	var snap snapshot
	if err := json.Unmarshal(blob, &snap); err != nil {
		p.log.Warn(ctx, "discarding corrupt predictor snapshot",
			logger.String("key", p.key), logger.Error(err))
		return
	}

	patterns := make(map[string]*EventPattern, len(snap.Patterns))
	for key, pat := range snap.Patterns {
		if pat == nil {
			continue
		}
		if pat.Followers == nil {
			pat.Followers = make(map[string]int)
		}
		patterns[key] = pat
	}
	p.patterns = patterns
	p.total = snap.Total

	p.recent = snap.Recent
	if len(p.recent) > p.window {
		p.recent = p.recent[len(p.recent)-p.window:]
	}

	p.log.Info(ctx, "predictor snapshot restored",
		logger.String("key", p.key),
		logger.Int("patterns", len(p.patterns)),
		logger.Int64("events", p.total))
}

// Reset drops the persisted snapshot and zeroes the in-memory state.
func (p *Predictor) Reset(ctx context.Context) {
	if p.store != nil {
		if err := p.store.Delete(ctx, p.key); err != nil {
			p.log.Debug(ctx, "predictor snapshot delete failed",
				logger.String("key", p.key), logger.Error(err))
		}
	}
	p.patterns = make(map[string]*EventPattern)
	p.recent = nil
	p.total = 0
}
