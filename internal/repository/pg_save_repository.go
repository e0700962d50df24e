package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pathways-server/internal/domain"
	"pathways-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const (
	insertSaveQuery = `
        INSERT INTO game_saves
            (id, player_id, character_id, node_id, ended, version, state_hash, state, created_at, updated_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `
	updateSaveQuery = `
        UPDATE game_saves SET
            character_id = $2,
            node_id = $3,
            ended = $4,
            version = $5,
            state_hash = $6,
            state = $7,
            updated_at = $8
        WHERE id = $1 AND version = $9
    `
	getSaveStateQuery    = `SELECT state FROM game_saves WHERE id = $1`
	saveExistsQuery      = `SELECT EXISTS(SELECT 1 FROM game_saves WHERE id = $1)`
	deleteSaveQuery      = `DELETE FROM game_saves WHERE id = $1`
	listSummariesByOwner = `
        SELECT id, character_id, node_id, version, ended, updated_at
        FROM game_saves
        WHERE player_id = $1
        ORDER BY updated_at DESC
    `
)

var _ SaveRepository = (*pgSaveRepository)(nil)

type pgSaveRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewPgSaveRepository creates a Postgres-backed SaveRepository.
func NewPgSaveRepository(db DBTX, logger *zap.Logger) SaveRepository {
	return &pgSaveRepository{
		db:     db,
		logger: logger.Named("PgSaveRepo"),
	}
}

type summaryRow struct {
	ID          uuid.UUID `db:"id"`
	CharacterID string    `db:"character_id"`
	NodeID      string    `db:"node_id"`
	Version     int64     `db:"version"`
	Ended       bool      `db:"ended"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r summaryRow) toDomain() domain.GameStateSummary {
	return domain.GameStateSummary{
		ID:          r.ID,
		CharacterID: r.CharacterID,
		NodeID:      r.NodeID,
		Version:     r.Version,
		Ended:       r.Ended,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (r *pgSaveRepository) Create(ctx context.Context, st *domain.GameState) error {
	logFields := []zap.Field{zap.Stringer("saveID", st.ID), zap.Stringer("playerID", st.PlayerID)}
	data, err := encodeState(st)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, insertSaveQuery,
		st.ID, st.PlayerID, st.CharacterID, st.NodeID, st.Ended,
		st.Version, st.StateHash, data, st.CreatedAt, st.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert game save", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to insert game save: %w", err)
	}
	r.logger.Debug("Game save created", logFields...)
	return nil
}

func (r *pgSaveRepository) Get(ctx context.Context, id uuid.UUID) (*domain.GameState, error) {
	var data []byte
	err := r.db.QueryRow(ctx, getSaveStateQuery, id).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrSaveNotFound
		}
		r.logger.Error("Failed to get game save", zap.Stringer("saveID", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get game save: %w", err)
	}
	return decodeState(data)
}

func (r *pgSaveRepository) ListByPlayer(ctx context.Context, playerID uuid.UUID) ([]domain.GameStateSummary, error) {
	var rows []summaryRow
	if err := pgxscan.Select(ctx, r.db, &rows, listSummariesByOwner, playerID); err != nil {
		r.logger.Error("Failed to list game saves", zap.Stringer("playerID", playerID), zap.Error(err))
		return nil, fmt.Errorf("failed to list game saves: %w", err)
	}
	out := make([]domain.GameStateSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *pgSaveRepository) Update(ctx context.Context, st *domain.GameState, expectedVersion int64) error {
	logFields := []zap.Field{
		zap.Stringer("saveID", st.ID),
		zap.Int64("expectedVersion", expectedVersion),
		zap.Int64("version", st.Version),
	}
	data, err := encodeState(st)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, updateSaveQuery,
		st.ID, st.CharacterID, st.NodeID, st.Ended, st.Version, st.StateHash, data, st.UpdatedAt,
		expectedVersion,
	)
	if err != nil {
		r.logger.Error("Failed to update game save", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to update game save: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx, saveExistsQuery, st.ID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check game save existence: %w", err)
	}
	if !exists {
		return models.ErrSaveNotFound
	}
	r.logger.Warn("Game save version conflict", logFields...)
	return models.ErrVersionConflict
}

func (r *pgSaveRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, deleteSaveQuery, id)
	if err != nil {
		r.logger.Error("Failed to delete game save", zap.Stringer("saveID", id), zap.Error(err))
		return fmt.Errorf("failed to delete game save: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrSaveNotFound
	}
	r.logger.Info("Game save deleted", zap.Stringer("saveID", id))
	return nil
}
