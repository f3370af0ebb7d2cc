package config

import "time"

type Config struct {
	Service  *ServiceConfig
	Postgres *PostgresConfig
	Redis    *RedisConfig
	Blob     *BlobConfig
	Tracer   *TracerConfig
	Logger   *LoggerConfig
	Auth     *AuthConfig
}

type ServiceConfig struct {
	Name string
	Env  string
	Addr string
}

type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

type RedisConfig struct {
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
	PingTimeout  time.Duration
	// UserTTL bounds staleness of cached user lookups.
	UserTTL time.Duration
}

type BlobConfig struct {
	// Dir is where attachments are written; BaseURL prefixes the public
	// URLs handed back to clients.
	Dir     string
	BaseURL string
}

type TracerConfig struct {
	Address string
	Enabled bool
}

type LoggerConfig struct {
	Level  string
	Format string
}

type AuthConfig struct {
	Secret   string
	TokenTTL time.Duration
}
