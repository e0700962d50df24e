package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pathways-server/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultCacheTTL - время жизни закэшированного состояния.
const DefaultCacheTTL = 10 * time.Minute

func stateCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("save:%s:state", id)
}

// CachedSaveRepository кэширует Get в Redis поверх другого SaveRepository.
// Ошибки Redis не ломают запрос: читаем и пишем напрямую в хранилище.
type CachedSaveRepository struct {
	next   SaveRepository
	client redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

var _ SaveRepository = (*CachedSaveRepository)(nil)

// NewCachedSaveRepository wraps next with a read-through Redis cache.
func NewCachedSaveRepository(next SaveRepository, client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *CachedSaveRepository {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedSaveRepository{next: next, client: client, ttl: ttl, logger: logger.Named("RedisSaveCache")}
}

func (r *CachedSaveRepository) Create(ctx context.Context, st *domain.GameState) error {
	if err := r.next.Create(ctx, st); err != nil {
		return err
	}
	r.store(ctx, st)
	return nil
}

func (r *CachedSaveRepository) Get(ctx context.Context, id uuid.UUID) (*domain.GameState, error) {
	key := stateCacheKey(id)
	data, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		st, decErr := decodeState(data)
		if decErr == nil {
			return st, nil
		}
		r.logger.Warn("Corrupted cached state, dropping", zap.String("key", key), zap.Error(decErr))
		r.invalidate(ctx, id)
	case errors.Is(err, redis.Nil):
	default:
		r.logger.Warn("Failed to read state cache", zap.String("key", key), zap.Error(err))
	}

	st, err := r.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, st)
	return st, nil
}

func (r *CachedSaveRepository) ListByPlayer(ctx context.Context, playerID uuid.UUID) ([]domain.GameStateSummary, error) {
	return r.next.ListByPlayer(ctx, playerID)
}

func (r *CachedSaveRepository) Update(ctx context.Context, st *domain.GameState, expectedVersion int64) error {
	// Сначала сбрасываем кэш: при ошибке записи он не должен пережить старую версию.
	r.invalidate(ctx, st.ID)
	if err := r.next.Update(ctx, st, expectedVersion); err != nil {
		return err
	}
	r.store(ctx, st)
	return nil
}

func (r *CachedSaveRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.invalidate(ctx, id)
	return r.next.Delete(ctx, id)
}

func (r *CachedSaveRepository) store(ctx context.Context, st *domain.GameState) {
	data, err := encodeState(st)
	if err != nil {
		r.logger.Warn("Failed to encode state for cache", zap.Stringer("saveID", st.ID), zap.Error(err))
		return
	}
	if err := r.client.Set(ctx, stateCacheKey(st.ID), data, r.ttl).Err(); err != nil {
		r.logger.Warn("Failed to write state cache", zap.Stringer("saveID", st.ID), zap.Error(err))
	}
}

func (r *CachedSaveRepository) invalidate(ctx context.Context, id uuid.UUID) {
	if err := r.client.Del(ctx, stateCacheKey(id)).Err(); err != nil {
		r.logger.Warn("Failed to invalidate state cache", zap.Stringer("saveID", id), zap.Error(err))
	}
}
