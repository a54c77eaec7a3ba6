package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/bichon-mail/bichon/internal/logger"
	"github.com/bichon-mail/bichon/internal/tracing"
)

type Config struct {
	AppConfig       *AppConfig
	DatabaseConfig  *DatabaseConfig
	R2StorageConfig *R2StorageConfig
}

func InitConfig() (*Config, error) {
	cfg := &Config{
		AppConfig: &AppConfig{
			Logger:  &logger.Config{},
			Tracing: &tracing.JaegerConfig{},
		},
		DatabaseConfig:  &DatabaseConfig{},
		R2StorageConfig: &R2StorageConfig{},
	}

	if err := godotenv.Load(); err != nil {
		log.Print("Unable to load .env file")
	}

	if err := env.Parse(cfg); err != nil {
		log.Fatalf("Error loading bichon config: %v", err)
	}

	return cfg, nil
}
