package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ogurasousui/taskflow-core/internal/core/reminder"
)

// Config はアプリケーション全体の設定を表現します。
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Reminder ReminderConfig `yaml:"reminder"`
	Insight  InsightConfig  `yaml:"insight"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// StorageConfig は永続化に関する設定です。
type StorageConfig struct {
	// Dir はコレクションを保存するディレクトリです。空の場合はインメモリで動作します。
	Dir string `yaml:"dir"`
}

// ReminderConfig はリマインダースケジューラに関する設定です。
type ReminderConfig struct {
	PollInterval    time.Duration `yaml:"-"`
	PollIntervalRaw string        `yaml:"poll_interval"`
	// Permission は通知許可の既定の判断です。granted / denied のいずれかです。
	Permission string `yaml:"permission"`
}

// InsightConfig は提案機能に関する設定です。
type InsightConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoggingConfig はログ出力に関する設定です。
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load は指定されたパスから設定ファイルを読み込みます。
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validateAndNormalize() error {
	if err := c.Reminder.validateAndNormalize(); err != nil {
		return err
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	return nil
}

func (r *ReminderConfig) validateAndNormalize() error {
	interval, err := parseDurationAllowEmpty(r.PollIntervalRaw)
	if err != nil {
		return fmt.Errorf("config: reminder.poll_interval: %w", err)
	}
	if interval < 0 {
		return fmt.Errorf("config: reminder.poll_interval must not be negative")
	}
	if interval == 0 {
		interval = reminder.DefaultInterval
	}
	r.PollInterval = interval

	switch r.Permission {
	case "":
		r.Permission = string(reminder.PermissionGranted)
	case string(reminder.PermissionGranted), string(reminder.PermissionDenied):
	default:
		return fmt.Errorf("config: reminder.permission must be granted or denied")
	}

	return nil
}

func parseDurationAllowEmpty(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	return d, nil
}
