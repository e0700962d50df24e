package database

import "time"

// Config - параметры пула Postgres.
type Config struct {
	DSN            string
	MaxConns       int32
	IdleTimeout    time.Duration
	ConnectTimeout time.Duration
}

func (c Config) connectTimeout() time.Duration {
	if c.ConnectTimeout <= 0 {
		return 10 * time.Second
	}
	return c.ConnectTimeout
}
