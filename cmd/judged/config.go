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
	defaultTickInterval = 2 * time.Second
	defaultJobsPerTick  = 2
)

// AppConfig holds judged configuration.
type AppConfig struct {
	Logger    logger.Config     `yaml:"logger"`
	Database  db.MySQLConfig    `yaml:"database"`
	Redis     cache.RedisConfig `yaml:"redis"`
	Worker    worker.Config     `yaml:"worker"`
	Languages lang.Config       `yaml:"languages"`

	// WorkDir is the parent directory for per-job workspaces; empty means
	// the OS temp dir.
	WorkDir string `yaml:"workDir"`
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
	if cfg.Worker.TickInterval == 0 {
		cfg.Worker.TickInterval = config.Duration(defaultTickInterval)
	}
	if cfg.Worker.JobsPerTick == 0 {
		cfg.Worker.JobsPerTick = defaultJobsPerTick
	}
	return &cfg, nil
}
