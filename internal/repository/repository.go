// Package repository хранит сохранения и профили игроков: Postgres как
// основное хранилище, SQLite для локального режима, Redis для кэша и блокировок.
package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"pathways-server/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX - общий интерфейс для *pgxpool.Pool и pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// SaveRepository stores game states.
//
//go:generate mockery --name SaveRepository --output ./mocks --outpkg mocks --case=underscore
type SaveRepository interface {
	// Create inserts a new save.
	Create(ctx context.Context, st *domain.GameState) error
	// Get returns models.ErrSaveNotFound if the save does not exist.
	Get(ctx context.Context, id uuid.UUID) (*domain.GameState, error)
	// ListByPlayer returns summaries, most recently updated first.
	ListByPlayer(ctx context.Context, playerID uuid.UUID) ([]domain.GameStateSummary, error)
	// Update replaces the save if the stored version equals expectedVersion,
	// otherwise returns models.ErrVersionConflict.
	Update(ctx context.Context, st *domain.GameState, expectedVersion int64) error
	// Delete returns models.ErrSaveNotFound if nothing was deleted.
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProfileRepository stores player profiles.
//
//go:generate mockery --name ProfileRepository --output ./mocks --outpkg mocks --case=underscore
type ProfileRepository interface {
	// Ensure creates the profile if missing and returns the stored one. Idempotent.
	Ensure(ctx context.Context, playerID uuid.UUID, displayName string) (*domain.Profile, error)
	// Get returns models.ErrProfileNotFound if the profile does not exist.
	Get(ctx context.Context, playerID uuid.UUID) (*domain.Profile, error)
}

// Unlock снимает блокировку выбора.
type Unlock func(ctx context.Context) error

// ChoiceLock serializes choices on one save.
//
//go:generate mockery --name ChoiceLock --output ./mocks --outpkg mocks --case=underscore
type ChoiceLock interface {
	// Acquire returns models.ErrChoiceInProgress if the save is already locked.
	Acquire(ctx context.Context, saveID uuid.UUID) (Unlock, error)
}

func encodeState(st *domain.GameState) ([]byte, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal game state %s: %w", st.ID, err)
	}
	return data, nil
}

func decodeState(data []byte) (*domain.GameState, error) {
	st := &domain.GameState{}
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game state: %w", err)
	}
	st.Normalize()
	return st, nil
}
