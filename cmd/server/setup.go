package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pathways-server/internal/config"
	"pathways-server/internal/database"
	"pathways-server/internal/messaging"
	"pathways-server/internal/repository"
	"pathways-server/pkg/migration"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// storeSet - собранные хранилища и ресурсы, которые надо закрыть при выходе.
type storeSet struct {
	Saves    repository.SaveRepository
	Profiles repository.ProfileRepository
	Lock     repository.ChoiceLock

	pool   *pgxpool.Pool
	sqlite *sql.DB
	redis  *redis.Client
	logger *zap.Logger
}

func (s *storeSet) Close() {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Warn("Error closing Redis client", zap.Error(err))
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
	if s.sqlite != nil {
		if err := s.sqlite.Close(); err != nil {
			s.logger.Warn("Error closing SQLite store", zap.Error(err))
		}
	}
}

// setupStores opens the local SQLite store and, unless local-only, Postgres in
// front of it. Redis adds the state cache and the distributed choice lock.
func setupStores(ctx context.Context, cfg *config.Config, log *zap.Logger) (*storeSet, error) {
	set := &storeSet{logger: log}

	local, err := database.OpenSQLite(ctx, cfg.SQLitePath, log)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	set.sqlite = local
	set.Saves = repository.NewSQLiteSaveRepository(local, log)
	set.Profiles = repository.NewSQLiteProfileRepository(local, log)
	set.Lock = repository.NewMemoryChoiceLock(cfg.LockTTL)

	if cfg.LocalOnly {
		log.Info("Local-only mode: saves are kept in SQLite")
		return set, nil
	}

	pool, err := setupPostgres(ctx, cfg, log)
	if err != nil {
		// Без Postgres сервер все равно поднимается на локальном хранилище.
		log.Warn("PostgreSQL unavailable, running on the local store", zap.Error(err))
	} else {
		set.pool = pool
		set.Saves = repository.NewFailoverSaveRepository(repository.NewPgSaveRepository(pool, log), set.Saves, log)
		set.Profiles = repository.NewFailoverProfileRepository(repository.NewPgProfileRepository(pool, log), set.Profiles, log)
	}

	if cfg.RedisAddr == "" {
		return set, nil
	}
	client, err := setupRedis(ctx, cfg, log)
	if err != nil {
		log.Warn("Redis unavailable, using in-process choice lock without cache", zap.Error(err))
		return set, nil
	}
	set.redis = client
	set.Saves = repository.NewCachedSaveRepository(set.Saves, client, cfg.CacheTTL, log)
	set.Lock = repository.NewRedisChoiceLock(client, cfg.LockTTL, log)
	return set, nil
}

// setupPostgres connects with a few retries and applies migrations when enabled.
func setupPostgres(ctx context.Context, cfg *config.Config, log *zap.Logger) (*pgxpool.Pool, error) {
	dbCfg := database.Config{
		DSN:            cfg.GetDSN(),
		MaxConns:       cfg.DBMaxConns,
		IdleTimeout:    cfg.DBIdleTimeout,
		ConnectTimeout: 5 * time.Second,
	}

	var (
		pool    *pgxpool.Pool
		lastErr error
	)
	maxRetries := 5
	retryDelay := 2 * time.Second
	for i := 0; i < maxRetries; i++ {
		pool, lastErr = database.NewPool(ctx, dbCfg, log)
		if lastErr == nil {
			break
		}
		log.Warn("Postgres connection failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Int("max_retries", maxRetries),
			zap.String("dsn", cfg.RedactedDSN()),
			zap.Error(lastErr),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("failed to connect to postgres after %d attempts: %w", maxRetries, lastErr)
	}

	if cfg.AutoMigrate {
		migrator := migration.NewMigrator(migration.Config{
			MigrationsFS:   database.MigrationsFS(),
			MigrationsPath: database.PostgresMigrationsPath,
		}, pool, log)
		if err := migrator.Up(); err != nil {
			pool.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
	}
	return pool, nil
}

func setupRedis(ctx context.Context, cfg *config.Config, log *zap.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("unable to ping redis: %w", err)
	}
	log.Info("Connected to Redis", zap.String("address", cfg.RedisAddr), zap.Int("db", cfg.RedisDB))
	return client, nil
}

// setupPublisher connects to RabbitMQ; without it notifications are dropped.
func setupPublisher(cfg *config.Config, log *zap.Logger) messaging.NotificationPublisher {
	if cfg.LocalOnly || cfg.RabbitMQURL == "" {
		return messaging.NoopPublisher{}
	}
	conn, err := connectRabbitMQ(cfg.RabbitMQURL, log)
	if err != nil {
		log.Warn("RabbitMQ unavailable, notifications disabled", zap.Error(err))
		return messaging.NoopPublisher{}
	}
	publisher, err := messaging.NewRabbitMQPublisher(conn, cfg.NotificationQueue, log)
	if err != nil {
		_ = conn.Close()
		log.Warn("Failed to create notification publisher, notifications disabled", zap.Error(err))
		return messaging.NoopPublisher{}
	}
	return &connPublisher{NotificationPublisher: publisher, conn: conn}
}

// connectRabbitMQ пытается подключиться к RabbitMQ с несколькими попытками.
func connectRabbitMQ(url string, log *zap.Logger) (*amqp.Connection, error) {
	var (
		conn *amqp.Connection
		err  error
	)
	maxRetries := 5
	retryDelay := 2 * time.Second
	for i := 0; i < maxRetries; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			log.Info("Connected to RabbitMQ")
			return conn, nil
		}
		log.Warn("Failed to connect to RabbitMQ, retrying...",
			zap.Int("attempt", i+1),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
		)
		time.Sleep(retryDelay)
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", maxRetries, err)
}

// connPublisher закрывает соединение вместе с каналом.
type connPublisher struct {
	messaging.NotificationPublisher
	conn *amqp.Connection
}

func (p *connPublisher) Close() error {
	err := p.NotificationPublisher.Close()
	if cerr := p.conn.Close(); err == nil {
		err = cerr
	}
	return err
}
