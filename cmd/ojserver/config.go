package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"minoj/internal/common/cache"
	"minoj/internal/common/config"
	"minoj/internal/common/db"
	"minoj/internal/judge/lang"
	"minoj/internal/judge/worker"
	"minoj/pkg/utils/logger"
)

const (
	defaultHTTPAddr        = "0.0.0.0:8080"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string          `yaml:"addr"`
	ReadTimeout  config.Duration `yaml:"readTimeout"`
	WriteTimeout config.Duration `yaml:"writeTimeout"`
	IdleTimeout  config.Duration `yaml:"idleTimeout"`
}

// AppConfig holds ojserver configuration.
type AppConfig struct {
	Server   ServerConfig      `yaml:"server"`
	Logger   logger.Config     `yaml:"logger"`
	Database db.MySQLConfig    `yaml:"database"`
	Redis    cache.RedisConfig `yaml:"redis"`

	// InlineDrain enables a best-effort drain right after each enqueue so
	// single-box deployments answer fast without a separate judged.
	InlineDrain bool          `yaml:"inlineDrain"`
	Worker      worker.Config `yaml:"worker"`
	Languages   lang.Config   `yaml:"languages"`
	WorkDir     string        `yaml:"workDir"`
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file failed: %w", err)
	}
	return nil
}

func loadAppConfig(path string) (*AppConfig, error) {
	var cfg AppConfig
	if err := loadYAML(path, &cfg); err != nil {
		return nil, err
	}
	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("database dsn is required")
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = config.Duration(defaultReadTimeout)
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = config.Duration(defaultWriteTimeout)
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = config.Duration(defaultIdleTimeout)
	}
	return &cfg, nil
}
