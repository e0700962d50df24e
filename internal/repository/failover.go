package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"pathways-server/internal/domain"
	"pathways-server/internal/models"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var persistenceFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "persistence_fallback_total",
	Help: "Operations served by the local store because the primary store failed.",
}, []string{"op"})

// isDomainError - ошибки, которые означают ответ хранилища, а не его недоступность.
func isDomainError(err error) bool {
	return errors.Is(err, models.ErrSaveNotFound) ||
		errors.Is(err, models.ErrProfileNotFound) ||
		errors.Is(err, models.ErrNotFound) ||
		errors.Is(err, models.ErrVersionConflict) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// FailoverSaveRepository пишет в основное хранилище, а при его недоступности
// переключает сохранение в локальное. Сохранение, однажды попавшее в локальное
// хранилище, дальше живет там: чтение сначала проверяет локальную копию.
type FailoverSaveRepository struct {
	primary  SaveRepository
	fallback SaveRepository
	logger   *zap.Logger
}

var _ SaveRepository = (*FailoverSaveRepository)(nil)

// NewFailoverSaveRepository wraps primary with a local fallback.
func NewFailoverSaveRepository(primary, fallback SaveRepository, logger *zap.Logger) *FailoverSaveRepository {
	return &FailoverSaveRepository{primary: primary, fallback: fallback, logger: logger.Named("FailoverSaveRepo")}
}

func (r *FailoverSaveRepository) failover(op string, err error, fields ...zap.Field) {
	persistenceFallbacks.WithLabelValues(op).Inc()
	r.logger.Warn("Primary store failed, using local store", append(fields, zap.String("op", op), zap.Error(err))...)
}

func (r *FailoverSaveRepository) Create(ctx context.Context, st *domain.GameState) error {
	err := r.primary.Create(ctx, st)
	if err == nil || isDomainError(err) {
		return err
	}
	r.failover("create", err, zap.Stringer("saveID", st.ID))
	return r.fallback.Create(ctx, st)
}

func (r *FailoverSaveRepository) Get(ctx context.Context, id uuid.UUID) (*domain.GameState, error) {
	local, err := r.fallback.Get(ctx, id)
	if err == nil {
		return local, nil
	}
	if !errors.Is(err, models.ErrSaveNotFound) {
		r.logger.Warn("Local store read failed", zap.Stringer("saveID", id), zap.Error(err))
	}
	st, err := r.primary.Get(ctx, id)
	if err != nil && !isDomainError(err) {
		// Локальной копии нет, основная недоступна: это не 404.
		r.failover("get", err, zap.Stringer("saveID", id))
		return nil, fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}
	return st, err
}

func (r *FailoverSaveRepository) ListByPlayer(ctx context.Context, playerID uuid.UUID) ([]domain.GameStateSummary, error) {
	merged := map[uuid.UUID]domain.GameStateSummary{}

	primary, err := r.primary.ListByPlayer(ctx, playerID)
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		r.failover("list", err, zap.Stringer("playerID", playerID))
	}
	for _, s := range primary {
		merged[s.ID] = s
	}

	local, err := r.fallback.ListByPlayer(ctx, playerID)
	if err != nil {
		r.logger.Warn("Local store list failed", zap.Stringer("playerID", playerID), zap.Error(err))
	}
	for _, s := range local {
		merged[s.ID] = s
	}

	out := make([]domain.GameStateSummary, 0, len(merged))
	for _, s := range merged {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (r *FailoverSaveRepository) Update(ctx context.Context, st *domain.GameState, expectedVersion int64) error {
	err := r.fallback.Update(ctx, st, expectedVersion)
	if err == nil || errors.Is(err, models.ErrVersionConflict) {
		return err
	}

	err = r.primary.Update(ctx, st, expectedVersion)
	if err == nil || isDomainError(err) {
		return err
	}
	r.failover("update", err, zap.Stringer("saveID", st.ID))
	// Версию проверить негде: основная копия недоступна, переносим сохранение целиком.
	return r.fallback.Create(ctx, st)
}

func (r *FailoverSaveRepository) Delete(ctx context.Context, id uuid.UUID) error {
	localErr := r.fallback.Delete(ctx, id)
	err := r.primary.Delete(ctx, id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrSaveNotFound):
		return localErr
	case isDomainError(err):
		return err
	}
	r.failover("delete", err, zap.Stringer("saveID", id))
	if localErr == nil {
		return nil
	}
	return err
}

// FailoverProfileRepository - то же переключение для профилей.
type FailoverProfileRepository struct {
	primary  ProfileRepository
	fallback ProfileRepository
	logger   *zap.Logger
}

var _ ProfileRepository = (*FailoverProfileRepository)(nil)

// NewFailoverProfileRepository wraps primary with a local fallback.
func NewFailoverProfileRepository(primary, fallback ProfileRepository, logger *zap.Logger) *FailoverProfileRepository {
	return &FailoverProfileRepository{primary: primary, fallback: fallback, logger: logger.Named("FailoverProfileRepo")}
}

func (r *FailoverProfileRepository) Ensure(ctx context.Context, playerID uuid.UUID, displayName string) (*domain.Profile, error) {
	p, err := r.primary.Ensure(ctx, playerID, displayName)
	if err == nil || isDomainError(err) {
		return p, err
	}
	persistenceFallbacks.WithLabelValues("ensure_profile").Inc()
	r.logger.Warn("Primary store failed, using local store", zap.Stringer("playerID", playerID), zap.Error(err))
	return r.fallback.Ensure(ctx, playerID, displayName)
}

func (r *FailoverProfileRepository) Get(ctx context.Context, playerID uuid.UUID) (*domain.Profile, error) {
	p, err := r.primary.Get(ctx, playerID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, models.ErrProfileNotFound) {
		if isDomainError(err) {
			return nil, err
		}
		persistenceFallbacks.WithLabelValues("get_profile").Inc()
		r.logger.Warn("Primary store failed, using local store", zap.Stringer("playerID", playerID), zap.Error(err))
	}
	return r.fallback.Get(ctx, playerID)
}
