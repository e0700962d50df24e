package repository

import (
	"context"
	"testing"
	"time"

	"pathways-server/internal/database"
	"pathways-server/internal/domain"
	"pathways-server/internal/models"
	"pathways-server/pkg/migration"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSQLiteRepos(t *testing.T) (SaveRepository, ProfileRepository) {
	t.Helper()
	db, err := database.OpenSQLite(context.Background(), ":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLiteSaveRepository(db, zap.NewNop()), NewSQLiteProfileRepository(db, zap.NewNop())
}

func sampleState(playerID uuid.UUID, at time.Time) *domain.GameState {
	st := domain.NewGameState(playerID, at)
	st.CharacterID = "samuel"
	st.NodeID = "platform"
	st.Trust["samuel"] = 3
	st.Patterns[domain.PatternPatience] = 2
	st.Flags.Add("noticed_clock")
	st.Visited.Add("samuel:platform")
	st.LastInteraction["samuel"] = at
	return st
}

func TestSQLiteSaveRoundTrip(t *testing.T) {
	saves, _ := newSQLiteRepos(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st := sampleState(uuid.New(), at)

	require.NoError(t, saves.Create(ctx, st))

	got, err := saves.Get(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, st.CharacterID, got.CharacterID)
	assert.Equal(t, 3, got.Trust["samuel"])
	assert.True(t, got.Flags.Has("noticed_clock"))
	assert.True(t, got.LastInteraction["samuel"].Equal(at))
	assert.NotNil(t, got.Gifts, "decoded state must have maps initialised")
}

func TestSQLiteSaveGetMissing(t *testing.T) {
	saves, _ := newSQLiteRepos(t)
	_, err := saves.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, models.ErrSaveNotFound)
}

func TestSQLiteSaveUpdateChecksVersion(t *testing.T) {
	saves, _ := newSQLiteRepos(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st := sampleState(uuid.New(), at)
	require.NoError(t, saves.Create(ctx, st))

	next := st.Clone()
	next.Version = 1
	next.NodeID = "clock"
	next.UpdatedAt = at.Add(time.Minute)
	require.NoError(t, saves.Update(ctx, next, 0))

	stale := st.Clone()
	stale.Version = 1
	assert.ErrorIs(t, saves.Update(ctx, stale, 0), models.ErrVersionConflict)

	missing := sampleState(uuid.New(), at)
	assert.ErrorIs(t, saves.Update(ctx, missing, 0), models.ErrSaveNotFound)

	got, err := saves.Get(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, "clock", got.NodeID)
	assert.EqualValues(t, 1, got.Version)
}

func TestSQLiteListByPlayerNewestFirst(t *testing.T) {
	saves, _ := newSQLiteRepos(t)
	ctx := context.Background()
	player := uuid.New()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	older := sampleState(player, at)
	newer := sampleState(player, at.Add(time.Hour))
	newer.Ended = true
	other := sampleState(uuid.New(), at)
	for _, st := range []*domain.GameState{older, newer, other} {
		require.NoError(t, saves.Create(ctx, st))
	}

	list, err := saves.ListByPlayer(ctx, player)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.True(t, list[0].Ended)
	assert.Equal(t, older.ID, list[1].ID)
	assert.True(t, list[1].UpdatedAt.Equal(at))

	empty, err := saves.ListByPlayer(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSQLiteSaveDelete(t *testing.T) {
	saves, _ := newSQLiteRepos(t)
	ctx := context.Background()
	st := sampleState(uuid.New(), time.Now())
	require.NoError(t, saves.Create(ctx, st))

	require.NoError(t, saves.Delete(ctx, st.ID))
	assert.ErrorIs(t, saves.Delete(ctx, st.ID), models.ErrSaveNotFound)
	_, err := saves.Get(ctx, st.ID)
	assert.ErrorIs(t, err, models.ErrSaveNotFound)
}

func TestSQLiteProfileEnsureIsIdempotent(t *testing.T) {
	_, profiles := newSQLiteRepos(t)
	ctx := context.Background()
	player := uuid.New()

	_, err := profiles.Get(ctx, player)
	assert.ErrorIs(t, err, models.ErrProfileNotFound)

	first, err := profiles.Ensure(ctx, player, "Traveler")
	require.NoError(t, err)
	assert.Equal(t, "Traveler", first.DisplayName)

	second, err := profiles.Ensure(ctx, player, "Someone Else")
	require.NoError(t, err)
	assert.Equal(t, "Traveler", second.DisplayName)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))
}

func TestSQLiteSchemaIsReapplicable(t *testing.T) {
	db, err := database.OpenSQLite(context.Background(), ":memory:", zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	migrator := migration.NewSQLiteMigrator(migration.Config{
		MigrationsFS:   database.MigrationsFS(),
		MigrationsPath: database.SQLiteMigrationsPath,
	}, db, zap.NewNop())
	assert.NoError(t, migrator.Up())

	// Хэндл остается открытым: схема все еще на месте.
	profiles := NewSQLiteProfileRepository(db, zap.NewNop())
	_, err = profiles.Ensure(context.Background(), uuid.New(), "Traveler")
	assert.NoError(t, err)
}
