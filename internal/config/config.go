package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

type Config struct {
	Env             string        `env:"ENV" env-default:"local" env-description:"local, dev or prod"`
	ServerPort      string        `env:"SERVER_PORT" env-default:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"5s"`

	DatabaseURL string `env:"DATABASE_URL" env-default:"sqlite://tasks.db" env-description:"postgres:// or sqlite:// connection string"`
	Seed        bool   `env:"DB_SEED" env-default:"false" env-description:"insert demo tasks when the table is empty"`

	BasicUser     string `env:"BASIC_USER" env-default:"admin"`
	BasicPass     string `env:"BASIC_PASS" env-default:"password"`
	BasicPassHash string `env:"BASIC_PASS_HASH" env-description:"bcrypt hash, overrides BASIC_PASS"`
	AuthRealm     string `env:"AUTH_REALM" env-default:"Task API"`

	RedisAddr string        `env:"REDIS_ADDR" env-description:"enables the task read cache"`
	CacheTTL  time.Duration `env:"CACHE_TTL" env-default:"5m"`
}

// LoadDotEnv copies variables from the given files (".env" by default) into the
// process environment without overriding ones already set. The error reports a
// missing or unreadable file; callers usually just log it.
func LoadDotEnv(filenames ...string) error {
	return godotenv.Load(filenames...)
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	switch cfg.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return nil, fmt.Errorf("unknown env %q", cfg.Env)
	}

	return &cfg, nil
}

// Usage describes every supported variable with its default.
func Usage() string {
	text, err := cleanenv.GetDescription(&Config{}, nil)
	if err != nil {
		return err.Error()
	}
	return text
}
