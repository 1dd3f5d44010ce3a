// Package config содержит конфигурацию шлюза NEXUS.
package config

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	pkgconfig "nexusglobal/pkg/config"
	"nexusglobal/pkg/logger"
)

// Константы ошибок и сообщений для конфигурации.
const (
	LogConfigLoaded     = "Configuration loaded successfully"
	ErrFailedLoadConfig = "Failed to load configuration"

	// EnvConfigFile - путь к необязательному YAML файлу конфигурации.
	EnvConfigFile = "GATEWAY_CONFIG_FILE"
	serviceName   = "gateway"
)

// Config представляет полную конфигурацию шлюза.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Session  SessionConfig  `yaml:"session"`
	Culqi    CulqiConfig    `yaml:"culqi"`
	HTTP     HTTPConfig     `yaml:"http"`
	Logging  LoggingConfig  `yaml:"logging"`
	Shutdown ShutdownConfig `yaml:"shutdown"`
	Redis    RedisConfig    `yaml:"redis"`
}

// Load загружает конфигурацию из переменных окружения и файла GATEWAY_CONFIG_FILE, если он задан.
func Load(ctx context.Context) (*Config, error) {
	log := logger.Log(ctx)

	cfg, err := pkgconfig.Load[Config](ctx, serviceName, os.Getenv(EnvConfigFile))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrFailedLoadConfig, err)
	}

	log.Info(ctx, LogConfigLoaded,
		zap.String("http_address", cfg.HTTP.GetAddress()),
		zap.String("log_level", cfg.Logging.Level),
		zap.String("log_mode", cfg.Logging.Mode),
		zap.Int("shutdown_timeout_seconds", cfg.Shutdown.Timeout),
		zap.String("api_server_url", cfg.API.ServerURL),
		zap.Duration("api_timeout", cfg.API.Timeout),
		zap.Duration("api_refresh_skew", cfg.API.RefreshSkew),
		zap.String("redis_address", cfg.Redis.GetAddress()),
		zap.Duration("session_ttl", cfg.Session.TTL),
		zap.Bool("culqi_enabled", cfg.Culqi.Enabled()))

	return cfg, nil
}

// GetEnvironment возвращает режим работы логгера.
func (c *LoggingConfig) GetEnvironment() logger.Environment {
	if c.Mode == "development" {
		return logger.Development
	}
	return logger.Production
}
