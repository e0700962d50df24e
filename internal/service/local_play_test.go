package service_test

import (
	"context"
	"testing"
	"time"

	"pathways-server/internal/content"
	"pathways-server/internal/database"
	"pathways-server/internal/models"
	"pathways-server/internal/repository"
	"pathways-server/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Локальный режим целиком: встроенный контент, SQLite, блокировка в памяти.
func TestLocalPlaythrough(t *testing.T) {
	ctx := context.Background()
	db, err := database.OpenSQLite(ctx, ":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	lib, _, err := content.Load(content.DefaultFS())
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := service.NewGameService(service.Deps{
		Saves:    repository.NewSQLiteSaveRepository(db, zap.NewNop()),
		Profiles: repository.NewSQLiteProfileRepository(db, zap.NewNop()),
		Content:  content.NewStore(lib),
		Logger:   zap.NewNop(),
		Now: func() time.Time {
			now = now.Add(time.Minute)
			return now
		},
	})

	player := uuid.New()
	_, err = svc.EnsureProfile(ctx, player, "Tess")
	require.NoError(t, err)

	start, err := svc.StartGame(ctx, player, "samuel", "en")
	require.NoError(t, err)
	saveID := start.State.ID
	assert.Equal(t, "intro", start.Presented.NodeID)

	out, err := svc.MakeChoice(ctx, service.ChoiceRequest{PlayerID: player, SaveID: saveID, ChoiceID: "sit"})
	require.NoError(t, err)
	assert.Equal(t, "platform", out.Presented.NodeID)
	assert.EqualValues(t, 2, out.State.Version)

	stale := int64(1)
	_, err = svc.MakeChoice(ctx, service.ChoiceRequest{PlayerID: player, SaveID: saveID, ChoiceID: "listen", ExpectedVersion: &stale})
	assert.ErrorIs(t, err, models.ErrVersionConflict)

	saves, err := svc.ListSaves(ctx, player)
	require.NoError(t, err)
	require.Len(t, saves, 1)
	assert.Equal(t, "platform", saves[0].NodeID)
	assert.EqualValues(t, 2, saves[0].Version)

	loaded, err := svc.GetSave(ctx, player, saveID)
	require.NoError(t, err)
	assert.Equal(t, out.State.StateHash, loaded.StateHash)
	assert.Equal(t, out.State.Trust["samuel"], loaded.Trust["samuel"])

	require.NoError(t, svc.DeleteSave(ctx, player, saveID))
	_, err = svc.GetSave(ctx, player, saveID)
	assert.ErrorIs(t, err, models.ErrSaveNotFound)
}
