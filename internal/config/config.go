package config

import (
	"fmt"
	"time"

	"pathways-server/pkg/utils"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

// Config содержит конфигурацию сервера.
type Config struct {
	Env         string   `envconfig:"ENV" default:"development"`
	Port        string   `envconfig:"SERVER_PORT" default:"8080"`
	LogLevel    string   `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string   `envconfig:"LOG_ENCODING" default:"json"`
	LogOutput   string   `envconfig:"LOG_OUTPUT"`
	CORSOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	// Локальный режим: без Postgres/Redis/RabbitMQ, только SQLite.
	LocalOnly bool `envconfig:"LOCAL_ONLY" default:"false"`
	// Секреты из переменных окружения, если файла нет (для разработки).
	AllowEnvSecrets bool `envconfig:"ALLOW_ENV_SECRETS" default:"false"`

	// Настройки PostgreSQL
	DBHost        string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" default:"pathways"`
	DBName        string        `envconfig:"DB_NAME" default:"pathways"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int32         `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE" default:"5m"`
	AutoMigrate   bool          `envconfig:"DB_AUTO_MIGRATE" default:"true"`
	// Секретное поле БЕЗ envconfig тега
	DBPassword string `ignored:"true"`

	SQLitePath string `envconfig:"SQLITE_PATH" default:"data/pathways.db"`

	// Redis; пустой адрес = кэш выключен, блокировки в памяти.
	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	CacheTTL      time.Duration `envconfig:"STATE_CACHE_TTL" default:"10m"`
	LockTTL       time.Duration `envconfig:"CHOICE_LOCK_TTL" default:"10s"`

	// RabbitMQ; пустой URL = уведомления выключены.
	RabbitMQURL       string `envconfig:"RABBITMQ_URL"`
	NotificationQueue string `envconfig:"NOTIFICATION_QUEUE" default:"pathways_notifications"`

	// Контент: пустой каталог = встроенный пакет, без горячей перезагрузки.
	ContentDir string `envconfig:"CONTENT_DIR"`

	MaxSavesPerPlayer int `envconfig:"MAX_SAVES_PER_PLAYER" default:"5"`

	// Секретное поле БЕЗ envconfig тега
	JWTSecret string `ignored:"true"`
}

// GetDSN возвращает строку подключения (DSN) для PostgreSQL
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// RedactedDSN - DSN без пароля, для логов.
func (c *Config) RedactedDSN() string {
	return fmt.Sprintf("postgres://%s:***@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// LoadConfig reads .env (if present), the environment and secret files.
func LoadConfig() (*Config, error) {
	// .env нужен только локально, его отсутствие не ошибка.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}
	if cfg.MaxSavesPerPlayer <= 0 {
		return nil, fmt.Errorf("MAX_SAVES_PER_PLAYER must be positive, got %d", cfg.MaxSavesPerPlayer)
	}

	var err error
	cfg.JWTSecret, err = utils.ReadSecretOrEnv("jwt_secret", cfg.AllowEnvSecrets)
	if err != nil {
		return nil, err
	}
	if !cfg.LocalOnly {
		cfg.DBPassword, err = utils.ReadSecretOrEnv("db_password", cfg.AllowEnvSecrets)
		if err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// Log пишет итоговую конфигурацию без секретов.
func (c *Config) Log(logger *zap.Logger) {
	logger.Info("Configuration loaded",
		zap.String("env", c.Env),
		zap.String("port", c.Port),
		zap.String("logLevel", c.LogLevel),
		zap.Bool("localOnly", c.LocalOnly),
		zap.String("dsn", c.RedactedDSN()),
		zap.String("sqlitePath", c.SQLitePath),
		zap.String("redisAddr", c.RedisAddr),
		zap.Bool("rabbitmq", c.RabbitMQURL != ""),
		zap.String("contentDir", c.ContentDir),
		zap.Int("maxSavesPerPlayer", c.MaxSavesPerPlayer),
		zap.Duration("lockTTL", c.LockTTL),
		zap.Duration("cacheTTL", c.CacheTTL),
	)
}
