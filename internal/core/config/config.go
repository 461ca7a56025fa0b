package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/MercuryTechnologies/streamly/internal/core/rule"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the top-level application config plus resolved rule-loading config.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Rules    RulesConfig    `koanf:"rules"`
	Tracker  TrackerConfig  `koanf:"tracker"`

	// RuleLoading is populated by Load after parsing rule files.
	RuleLoading RuleLoadingConfig `koanf:"-"`
}

type ServerConfig struct {
	Port          int    `koanf:"port"`
	Host          string `koanf:"host"`
	MaxBodySizeMB int    `koanf:"max_body_size_mb"`
	Mode          string `koanf:"mode"` // debug | release
}

type DatabaseConfig struct {
	Type         string `koanf:"type"`
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

type RulesConfig struct {
	ConfigDir    string `koanf:"config_dir"`
	RequireRules bool   `koanf:"require_rules"`
}

type TrackerConfig struct {
	SnapshotEnabled  bool   `koanf:"snapshot_enabled"`
	SnapshotInterval string `koanf:"snapshot_interval"` // parsed and validated on startup
	SnapshotWorkers  int    `koanf:"snapshot_workers"`
	ReplayBatchSize  int    `koanf:"replay_batch_size"`
}

type RuleLoadingConfig struct {
	ConfigDir string
	Rules     []rule.Rule
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.MaxBodySizeMB <= 0 {
		return fmt.Errorf("server.max_body_size_mb must be > 0")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}

	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be > 0")
	}
	if c.Database.MaxIdleConns <= 0 {
		return fmt.Errorf("database.max_idle_conns must be > 0")
	}
	if c.Database.Type != "" && c.Database.Type != "postgres" {
		return fmt.Errorf("unsupported database.type %q", c.Database.Type)
	}

	if strings.TrimSpace(c.Rules.ConfigDir) == "" {
		return fmt.Errorf("rules.config_dir is required")
	}

	interval, err := time.ParseDuration(c.Tracker.SnapshotInterval)
	if err != nil {
		return fmt.Errorf("invalid tracker.snapshot_interval %q: %w", c.Tracker.SnapshotInterval, err)
	}
	if interval <= 0 {
		return fmt.Errorf("tracker.snapshot_interval must be > 0")
	}
	if c.Tracker.SnapshotWorkers <= 0 {
		return fmt.Errorf("tracker.snapshot_workers must be > 0")
	}
	if c.Tracker.ReplayBatchSize <= 0 {
		return fmt.Errorf("tracker.replay_batch_size must be > 0")
	}

	return nil
}

// EffectiveSnapshotInterval returns the parsed snapshot interval. Validate
// must have succeeded first.
func (c TrackerConfig) EffectiveSnapshotInterval() time.Duration {
	interval, err := time.ParseDuration(c.SnapshotInterval)
	if err != nil {
		return 30 * time.Second
	}
	return interval
}

// Load parses config from file + env, validates it, then loads and validates statistic rules.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":               8080,
		"server.host":               "0.0.0.0",
		"server.max_body_size_mb":   1,
		"server.mode":               "release",
		"database.type":             "postgres",
		"database.dsn":              "postgres://localhost:5432/streamly?sslmode=disable",
		"database.max_open_conns":   25,
		"database.max_idle_conns":   25,
		"database.auto_migrate":     true,
		"rules.config_dir":          "./config/rules",
		"rules.require_rules":       true,
		"tracker.snapshot_enabled":  true,
		"tracker.snapshot_interval": "30s",
		"tracker.snapshot_workers":  10,
		"tracker.replay_batch_size": 1000,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("STREAMLY_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "STREAMLY_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	repo, err := rule.NewFileSystemRepository(cfg.Rules.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load statistic rules: %w", err)
	}
	rules := repo.GetRules()
	if cfg.Rules.RequireRules && len(rules) == 0 {
		return nil, fmt.Errorf("no statistic rules found in %q", cfg.Rules.ConfigDir)
	}

	cfg.RuleLoading = RuleLoadingConfig{
		ConfigDir: cfg.Rules.ConfigDir,
		Rules:     rules,
	}

	return &cfg, nil
}
