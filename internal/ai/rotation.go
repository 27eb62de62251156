package ai

import (
	"sync"

	"github.com/ezhov-dev/zapguard/internal/config"
	"github.com/ezhov-dev/zapguard/internal/logger"
)

// Entry is one (model, credential) combination in the fallback order.
type Entry struct {
	Model  string
	APIKey string
	Label  string
}

// Rotation walks an ordered list of entries. The index survives across
// orchestration calls so a dead key is not retried first on every request.
type Rotation struct {
	entries []Entry
	index   int
	mu      sync.Mutex
	logger  logger.Logger
}

func NewRotation(entries []config.RotationEntry, log logger.Logger) *Rotation {
	converted := make([]Entry, 0, len(entries))
	for _, e := range entries {
		label := e.Label
		if label == "" {
			label = e.Model
		}
		converted = append(converted, Entry{
			Model:  e.Model,
			APIKey: e.APIKey,
			Label:  label,
		})
	}
	return &Rotation{
		entries: converted,
		logger:  log,
	}
}

func (r *Rotation) Current() Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return Entry{}
	}
	return r.entries[r.index]
}

// SwitchToNext advances to the next entry, wrapping around at the end.
func (r *Rotation) SwitchToNext() Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return Entry{}
	}
	previous := r.entries[r.index]
	r.index = (r.index + 1) % len(r.entries)
	next := r.entries[r.index]
	r.logger.WithFields(logger.Fields{
		"from": previous.Label,
		"to":   next.Label,
	}).Info("Switched AI model")
	return next
}

func (r *Rotation) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
