// Package config provides configuration types and defaults for pourover.
package config

import "time"

// Config holds all configuration for pourover.
type Config struct {
	Session     SessionConfig     `yaml:"session" mapstructure:"session"`
	Sound       SoundConfig       `yaml:"sound" mapstructure:"sound"`
	Haptics     HapticsConfig     `yaml:"haptics" mapstructure:"haptics"`
	Inventory   InventoryConfig   `yaml:"inventory" mapstructure:"inventory"`
	Paths       PathsConfig       `yaml:"paths" mapstructure:"paths"`
	LogRotation LogRotationConfig `yaml:"log_rotation" mapstructure:"log_rotation"`
}

// SessionConfig holds brew session timing settings.
type SessionConfig struct {
	// PreRoll is the countdown before the first stage begins (0 = none).
	PreRoll time.Duration `yaml:"pre_roll" mapstructure:"pre_roll"`
	// TickInterval is the session clock cadence.
	TickInterval time.Duration `yaml:"tick_interval" mapstructure:"tick_interval"`
}

// SoundConfig holds audio cue settings.
type SoundConfig struct {
	Enabled bool    `yaml:"enabled" mapstructure:"enabled"`
	Volume  float64 `yaml:"volume" mapstructure:"volume"` // 0.0 to 1.0
}

// HapticsConfig holds terminal-bell haptic settings.
type HapticsConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// InventoryConfig holds bean inventory behavior.
type InventoryConfig struct {
	// AutoConsume deducts the method's dose from the selected bean when a
	// brew completes.
	AutoConsume bool `yaml:"auto_consume" mapstructure:"auto_consume"`
	// LowStockG is the remaining weight below which listings flag a bean.
	LowStockG float64 `yaml:"low_stock_g" mapstructure:"low_stock_g"`
}

// PathsConfig holds file paths for the journal, logs, socket, and database.
type PathsConfig struct {
	Journal string `yaml:"journal" mapstructure:"journal"`
	Log     string `yaml:"log" mapstructure:"log"`
	Socket  string `yaml:"socket" mapstructure:"socket"`
	Session string `yaml:"session" mapstructure:"session"`
	DB      string `yaml:"db" mapstructure:"db"`
	Catalog string `yaml:"catalog" mapstructure:"catalog"`
}

// LogRotationConfig holds settings for debug log rotation
// (lumberjack-based automatic rotation).
type LogRotationConfig struct {
	MaxSizeMB  int  `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool `yaml:"compress" mapstructure:"compress"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Session: SessionConfig{
			PreRoll:      3 * time.Second,
			TickInterval: 200 * time.Millisecond,
		},
		Sound: SoundConfig{
			Enabled: true,
			Volume:  0.7,
		},
		Haptics: HapticsConfig{
			Enabled: true,
		},
		Inventory: InventoryConfig{
			AutoConsume: true,
			LowStockG:   60,
		},
		Paths: PathsConfig{
			Journal: ".pourover/journal.jsonl",
			Log:     ".pourover/pourover.log",
			Socket:  ".pourover/pourover.sock",
			Session: ".pourover/session.json",
			DB:      ".pourover/pourover.db",
			Catalog: ".pourover/methods.yaml",
		},
		LogRotation: LogRotationConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Compress:   true,
		},
	}
}
