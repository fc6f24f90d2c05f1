package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr      string        `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath        string        `env:"DB_PATH" envDefault:"data/livequiz.db"`
	LogLevel      slog.Level    `env:"LOG_LEVEL" envDefault:"INFO"`
	FilesDir      string        `env:"FILES_DIR" envDefault:"data/files"`
	AdminPassword string        `env:"ADMIN_PASSWORD" envDefault:"password"`
	InviteCode    string        `env:"INVITE_CODE" envDefault:"WELCOME"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"12h"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
