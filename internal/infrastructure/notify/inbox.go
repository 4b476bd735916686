// Package notify implements the toast inbox the session UI polls.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/huygym/membership-system/internal/core/domain"
	"github.com/huygym/membership-system/internal/core/ports"
	"github.com/huygym/membership-system/pkg/logger"
)

const defaultCapacity = 32

// Inbox is a bounded FIFO of notifications. When full, the oldest
// notification is dropped.
type Inbox struct {
	log zerolog.Logger
	now func() time.Time

	mu    sync.Mutex
	items []domain.Notification
	cap   int
}

var _ ports.Notifier = (*Inbox)(nil)

// NewInbox returns an Inbox holding at most capacity notifications.
func NewInbox(capacity int, log zerolog.Logger) *Inbox {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Inbox{
		log: logger.Component(log, "notify"),
		now: time.Now,
		cap: capacity,
	}
}

// Notify appends a notification and logs it.
func (b *Inbox) Notify(_ context.Context, message string, level domain.NotifyLevel) {
	ev := b.log.Info()
	if level == domain.LevelErr || level == domain.LevelWarn {
		ev = b.log.Warn()
	}
	ev.Str("level", string(level)).Msg(message)

	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.items) == b.cap {
		b.items = b.items[1:]
	}
	b.items = append(b.items, domain.Notification{Message: message, Level: level, At: b.now().UTC()})
}

// Drain returns pending notifications oldest first and empties the inbox.
func (b *Inbox) Drain() []domain.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.items
	b.items = nil
	if out == nil {
		out = []domain.Notification{}
	}
	return out
}

// Len reports the number of pending notifications.
func (b *Inbox) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}
