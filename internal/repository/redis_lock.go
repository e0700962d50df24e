package repository

import (
	"context"
	"fmt"
	"time"

	"pathways-server/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultLockTTL - страховка на случай, если владелец блокировки упал.
const DefaultLockTTL = 10 * time.Second

// Удаляем ключ, только если он все еще наш.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func lockKey(id uuid.UUID) string {
	return fmt.Sprintf("save:%s:lock", id)
}

type redisChoiceLock struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisChoiceLock creates a ChoiceLock shared by all server instances.
func NewRedisChoiceLock(client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) ChoiceLock {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &redisChoiceLock{client: client, ttl: ttl, logger: logger.Named("RedisChoiceLock")}
}

func (l *redisChoiceLock) Acquire(ctx context.Context, saveID uuid.UUID) (Unlock, error) {
	key := lockKey(saveID)
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		l.logger.Error("Failed to acquire choice lock", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("failed to acquire choice lock: %w", err)
	}
	if !ok {
		return nil, models.ErrChoiceInProgress
	}
	return func(ctx context.Context) error {
		n, err := unlockScript.Run(ctx, l.client, []string{key}, token).Int64()
		if err != nil {
			l.logger.Warn("Failed to release choice lock", zap.String("key", key), zap.Error(err))
			return fmt.Errorf("failed to release choice lock: %w", err)
		}
		if n == 0 {
			l.logger.Warn("Choice lock expired before release", zap.String("key", key))
		}
		return nil
	}, nil
}
