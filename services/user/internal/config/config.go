package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"user"`
	ServerPort  int    `env:"SERVER_PORT" envDefault:"8081"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseURL string `env:"DATABASE_URL"`
	JWTSecret   string `env:"JWT_SECRET"`

	AccessTokenMinutes  int `env:"ACCESS_TOKEN_MINUTES" envDefault:"15"`
	RefreshTokenMinutes int `env:"REFRESH_TOKEN_MINUTES" envDefault:"10080"`

	CatalogURL string `env:"CATALOG_URL"`

	KafkaBrokers []string `env:"KAFKA_BROKERS"`

	OutboxIntervalSeconds int `env:"OUTBOX_INTERVAL_SECONDS" envDefault:"5"`
}

func Load() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}
