package repository

import (
	"context"
	"sync"
	"time"

	"pathways-server/internal/models"

	"github.com/google/uuid"
)

// MemoryChoiceLock - блокировка в пределах одного процесса, для локального режима.
type MemoryChoiceLock struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	held   map[uuid.UUID]lockEntry
	serial uint64
}

type lockEntry struct {
	serial  uint64
	expires time.Time
}

var _ ChoiceLock = (*MemoryChoiceLock)(nil)

// NewMemoryChoiceLock creates an in-process ChoiceLock.
func NewMemoryChoiceLock(ttl time.Duration) *MemoryChoiceLock {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &MemoryChoiceLock{ttl: ttl, now: time.Now, held: map[uuid.UUID]lockEntry{}}
}

func (l *MemoryChoiceLock) Acquire(ctx context.Context, saveID uuid.UUID) (Unlock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, ok := l.held[saveID]; ok && now.Before(e.expires) {
		return nil, models.ErrChoiceInProgress
	}
	l.serial++
	serial := l.serial
	l.held[saveID] = lockEntry{serial: serial, expires: now.Add(l.ttl)}

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if e, ok := l.held[saveID]; ok && e.serial == serial {
			delete(l.held, saveID)
		}
		return nil
	}, nil
}
