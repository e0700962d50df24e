package repository

import (
	"context"
	"testing"
	"time"

	"pathways-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryChoiceLock(t *testing.T) {
	l := NewMemoryChoiceLock(time.Second)
	ctx := context.Background()
	id := uuid.New()

	unlock, err := l.Acquire(ctx, id)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, id)
	assert.ErrorIs(t, err, models.ErrChoiceInProgress)

	other, err := l.Acquire(ctx, uuid.New())
	require.NoError(t, err, "locks are per save")
	require.NoError(t, other(ctx))

	require.NoError(t, unlock(ctx))
	again, err := l.Acquire(ctx, id)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestMemoryChoiceLockExpires(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewMemoryChoiceLock(time.Second)
	l.now = func() time.Time { return now }
	ctx := context.Background()
	id := uuid.New()

	stale, err := l.Acquire(ctx, id)
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	fresh, err := l.Acquire(ctx, id)
	require.NoError(t, err, "expired lock can be taken over")

	// Старый владелец не должен снять чужую блокировку.
	require.NoError(t, stale(ctx))
	_, err = l.Acquire(ctx, id)
	assert.ErrorIs(t, err, models.ErrChoiceInProgress)

	require.NoError(t, fresh(ctx))
}

func TestMemoryChoiceLockCanceledContext(t *testing.T) {
	l := NewMemoryChoiceLock(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.Acquire(ctx, uuid.New())
	assert.ErrorIs(t, err, context.Canceled)
}
