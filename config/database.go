package config

import "time"

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"                    envDefault:"localhost"`
	Port     int    `env:"PORT"                    envDefault:"5432"`
	User     string `env:"USER"                    envDefault:"jobrelay"`
	Password string `env:"PASSWORD"                envDefault:"jobrelay"`
	Name     string `env:"NAME"                    envDefault:"jobrelay"`
	SSLMode  string `env:"SSL_MODE"                envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// RedisConfig contains Redis configuration for the terminal view cache.
type RedisConfig struct {
	Addr     string `env:"ADDR"     envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`

	// Enabled toggles the status view cache. The API serves reads from
	// Postgres alone when disabled.
	Enabled bool `env:"ENABLED" envDefault:"false"`

	// ViewTTL is the TTL for cached terminal status views.
	ViewTTL time.Duration `env:"VIEW_TTL" envDefault:"15m"`
}
