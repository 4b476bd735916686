// Package activity holds the log-backed activity sink used when no database
// is configured.
package activity

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/huygym/membership-system/internal/core/domain"
	"github.com/huygym/membership-system/internal/core/ports"
	"github.com/huygym/membership-system/pkg/logger"
)

const defaultCapacity = 100

// LogRecorder writes every activity record as a structured log line and keeps
// the most recent ones in memory so they can still be listed.
type LogRecorder struct {
	log zerolog.Logger
	now func() time.Time

	mu      sync.Mutex
	entries []domain.ActivityEntry
	next    int
	full    bool
}

var (
	_ ports.ActivityRecorder = (*LogRecorder)(nil)
	_ ports.ActivityReader   = (*LogRecorder)(nil)
)

// NewLogRecorder returns a LogRecorder retaining up to capacity entries.
func NewLogRecorder(log zerolog.Logger, capacity int) *LogRecorder {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &LogRecorder{
		log:     logger.Component(log, "activity"),
		now:     time.Now,
		entries: make([]domain.ActivityEntry, capacity),
	}
}

func (r *LogRecorder) Record(_ context.Context, eventType string, metadata map[string]string) error {
	meta := make(map[string]string, len(metadata))
	ev := r.log.Info().Str("event_type", eventType)
	for k, v := range metadata {
		meta[k] = v
		ev = ev.Str(k, v)
	}
	ev.Msg("activity")

	r.mu.Lock()
	r.entries[r.next] = domain.ActivityEntry{EventType: eventType, Metadata: meta, OccurredAt: r.now().UTC()}
	r.next = (r.next + 1) % len(r.entries)
	if r.next == 0 {
		r.full = true
	}
	r.mu.Unlock()
	return nil
}

// Recent returns up to limit retained entries of eventType, newest first.
func (r *LogRecorder) Recent(_ context.Context, eventType string, limit int) ([]domain.ActivityEntry, error) {
	r.mu.Lock()
	var kept []domain.ActivityEntry
	if r.full {
		kept = append(kept, r.entries[r.next:]...)
	}
	kept = append(kept, r.entries[:r.next]...)
	r.mu.Unlock()

	out := make([]domain.ActivityEntry, 0, len(kept))
	for i := len(kept) - 1; i >= 0; i-- {
		if eventType != "" && kept[i].EventType != eventType {
			continue
		}
		out = append(out, kept[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
