package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pathways-server/internal/domain"
	"pathways-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Время в SQLite хранится текстом, чтобы сортировка совпадала с хронологией.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string { return t.UTC().Format(sqliteTimeLayout) }

func parseTime(s string) (time.Time, error) { return time.Parse(sqliteTimeLayout, s) }

var (
	_ SaveRepository    = (*sqliteSaveRepository)(nil)
	_ ProfileRepository = (*sqliteProfileRepository)(nil)
)

type sqliteSaveRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteSaveRepository creates the local-mode SaveRepository.
func NewSQLiteSaveRepository(db *sql.DB, logger *zap.Logger) SaveRepository {
	return &sqliteSaveRepository{db: db, logger: logger.Named("SQLiteSaveRepo")}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (r *sqliteSaveRepository) Create(ctx context.Context, st *domain.GameState) error {
	data, err := encodeState(st)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO game_saves
			(id, player_id, character_id, node_id, ended, version, state_hash, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID.String(), st.PlayerID.String(), st.CharacterID, st.NodeID, boolToInt(st.Ended),
		st.Version, st.StateHash, string(data), formatTime(st.CreatedAt), formatTime(st.UpdatedAt),
	)
	if err != nil {
		r.logger.Error("Failed to insert game save", zap.Stringer("saveID", st.ID), zap.Error(err))
		return fmt.Errorf("failed to insert game save: %w", err)
	}
	return nil
}

func (r *sqliteSaveRepository) Get(ctx context.Context, id uuid.UUID) (*domain.GameState, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT state FROM game_saves WHERE id = ?`, id.String()).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrSaveNotFound
		}
		return nil, fmt.Errorf("failed to get game save: %w", err)
	}
	return decodeState([]byte(data))
}

func (r *sqliteSaveRepository) ListByPlayer(ctx context.Context, playerID uuid.UUID) ([]domain.GameStateSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, character_id, node_id, version, ended, updated_at
		FROM game_saves
		WHERE player_id = ?
		ORDER BY updated_at DESC`, playerID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list game saves: %w", err)
	}
	defer rows.Close()

	out := []domain.GameStateSummary{}
	for rows.Next() {
		var (
			s         domain.GameStateSummary
			id        string
			ended     int
			updatedAt string
		)
		if err := rows.Scan(&id, &s.CharacterID, &s.NodeID, &s.Version, &ended, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan game save: %w", err)
		}
		if s.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("bad save id %q: %w", id, err)
		}
		if s.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, fmt.Errorf("bad updated_at %q: %w", updatedAt, err)
		}
		s.Ended = ended != 0
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *sqliteSaveRepository) Update(ctx context.Context, st *domain.GameState, expectedVersion int64) error {
	data, err := encodeState(st)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE game_saves SET
			character_id = ?, node_id = ?, ended = ?, version = ?, state_hash = ?, state = ?, updated_at = ?
		WHERE id = ? AND version = ?`,
		st.CharacterID, st.NodeID, boolToInt(st.Ended), st.Version, st.StateHash, string(data), formatTime(st.UpdatedAt),
		st.ID.String(), expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update game save: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM game_saves WHERE id = ?`, st.ID.String()).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check game save existence: %w", err)
	}
	if exists == 0 {
		return models.ErrSaveNotFound
	}
	return models.ErrVersionConflict
}

func (r *sqliteSaveRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM game_saves WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete game save: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrSaveNotFound
	}
	return nil
}

type sqliteProfileRepository struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewSQLiteProfileRepository creates the local-mode ProfileRepository.
func NewSQLiteProfileRepository(db *sql.DB, logger *zap.Logger) ProfileRepository {
	return &sqliteProfileRepository{db: db, logger: logger.Named("SQLiteProfileRepo"), now: time.Now}
}

func (r *sqliteProfileRepository) Ensure(ctx context.Context, playerID uuid.UUID, displayName string) (*domain.Profile, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO player_profiles (player_id, display_name, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (player_id) DO NOTHING`,
		playerID.String(), displayName, formatTime(r.now()),
	)
	if err != nil {
		r.logger.Error("Failed to ensure player profile", zap.Stringer("playerID", playerID), zap.Error(err))
		return nil, fmt.Errorf("failed to ensure player profile: %w", err)
	}
	return r.Get(ctx, playerID)
}

func (r *sqliteProfileRepository) Get(ctx context.Context, playerID uuid.UUID) (*domain.Profile, error) {
	var createdAt string
	p := &domain.Profile{PlayerID: playerID}
	err := r.db.QueryRowContext(ctx,
		`SELECT display_name, created_at FROM player_profiles WHERE player_id = ?`, playerID.String(),
	).Scan(&p.DisplayName, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get player profile: %w", err)
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("bad created_at %q: %w", createdAt, err)
	}
	return p, nil
}
