package repository

import (
	"context"
	"errors"
	"fmt"

	"pathways-server/internal/domain"
	"pathways-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	ensureProfileQuery = `
        INSERT INTO player_profiles (player_id, display_name)
        VALUES ($1, $2)
        ON CONFLICT (player_id) DO NOTHING
    `
	getProfileQuery = `SELECT player_id, display_name, created_at FROM player_profiles WHERE player_id = $1`
)

var _ ProfileRepository = (*pgProfileRepository)(nil)

type pgProfileRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewPgProfileRepository creates a Postgres-backed ProfileRepository.
func NewPgProfileRepository(db DBTX, logger *zap.Logger) ProfileRepository {
	return &pgProfileRepository{
		db:     db,
		logger: logger.Named("PgProfileRepo"),
	}
}

func (r *pgProfileRepository) Ensure(ctx context.Context, playerID uuid.UUID, displayName string) (*domain.Profile, error) {
	if _, err := r.db.Exec(ctx, ensureProfileQuery, playerID, displayName); err != nil {
		r.logger.Error("Failed to ensure player profile", zap.Stringer("playerID", playerID), zap.Error(err))
		return nil, fmt.Errorf("failed to ensure player profile: %w", err)
	}
	return r.Get(ctx, playerID)
}

func (r *pgProfileRepository) Get(ctx context.Context, playerID uuid.UUID) (*domain.Profile, error) {
	p := &domain.Profile{}
	if err := pgxscan.Get(ctx, r.db, p, getProfileQuery, playerID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, models.ErrProfileNotFound
		}
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		r.logger.Error("Failed to get player profile", zap.Stringer("playerID", playerID), zap.Error(err))
		return nil, fmt.Errorf("failed to get player profile: %w", err)
	}
	return p, nil
}
