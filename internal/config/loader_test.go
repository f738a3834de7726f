package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadConfig_Defaults(t *testing.T) {
	v := viper.New()
	cfg, err := LoadConfig(v)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Session.PreRoll != 3*time.Second {
		t.Errorf("Session.PreRoll = %v, want %v", cfg.Session.PreRoll, 3*time.Second)
	}
	if cfg.Session.TickInterval != 200*time.Millisecond {
		t.Errorf("Session.TickInterval = %v, want %v", cfg.Session.TickInterval, 200*time.Millisecond)
	}
	if !cfg.Sound.Enabled || cfg.Sound.Volume != 0.7 {
		t.Errorf("Sound defaults wrong: %+v", cfg.Sound)
	}
	if !cfg.Inventory.AutoConsume || cfg.Inventory.LowStockG != 60 {
		t.Errorf("Inventory defaults wrong: %+v", cfg.Inventory)
	}
	if cfg.Paths.Journal != ".pourover/journal.jsonl" {
		t.Errorf("Paths.Journal = %q", cfg.Paths.Journal)
	}
	if cfg.LogRotation.MaxSizeMB != 10 {
		t.Errorf("LogRotation.MaxSizeMB = %d, want 10", cfg.LogRotation.MaxSizeMB)
	}
}

func TestLoadConfig_LocalFile(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	defer func() { _ = os.Chdir(oldWd) }()

	if err := os.MkdirAll(ProjectConfigDir, 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}

	configContent := `
session:
  pre_roll: 5s
  tick_interval: 100ms
sound:
  enabled: false
inventory:
  low_stock_g: 100
paths:
  journal: "brews/journal.jsonl"
`
	configPath := filepath.Join(ProjectConfigDir, ProjectConfigFile)
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("write config failed: %v", err)
	}

	v := viper.New()
	cfg, err := LoadConfig(v)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Session.PreRoll != 5*time.Second {
		t.Errorf("Session.PreRoll = %v, want %v", cfg.Session.PreRoll, 5*time.Second)
	}
	if cfg.Session.TickInterval != 100*time.Millisecond {
		t.Errorf("Session.TickInterval = %v, want %v", cfg.Session.TickInterval, 100*time.Millisecond)
	}
	if cfg.Sound.Enabled {
		t.Error("Sound.Enabled should be overridden to false")
	}
	if cfg.Inventory.LowStockG != 100 {
		t.Errorf("Inventory.LowStockG = %v, want 100", cfg.Inventory.LowStockG)
	}
	if cfg.Paths.Journal != "brews/journal.jsonl" {
		t.Errorf("Paths.Journal = %q", cfg.Paths.Journal)
	}

	// Values not in the file keep their defaults.
	if cfg.Haptics.Enabled != true {
		t.Error("Haptics.Enabled default lost")
	}
	if cfg.Paths.Socket != ".pourover/pourover.sock" {
		t.Errorf("Paths.Socket = %q, want default", cfg.Paths.Socket)
	}
}

func TestLoadConfig_ExplicitFile(t *testing.T) {
	tmpDir := t.TempDir()

	configContent := `
session:
  pre_roll: 10s
`
	configPath := filepath.Join(tmpDir, "custom-config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("write config failed: %v", err)
	}

	v := viper.New()
	v.Set("config", configPath)

	cfg, err := LoadConfig(v)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Session.PreRoll != 10*time.Second {
		t.Errorf("Session.PreRoll = %v, want %v", cfg.Session.PreRoll, 10*time.Second)
	}
}

func TestLoadConfig_ExplicitFileMissing(t *testing.T) {
	v := viper.New()
	v.Set("config", filepath.Join(t.TempDir(), "does-not-exist.yaml"))

	if _, err := LoadConfig(v); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestLoadConfig_ViperOverrides(t *testing.T) {
	v := viper.New()
	v.Set("sound.volume", 0.2)
	v.Set("session.tick_interval", "50ms")

	cfg, err := LoadConfig(v)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Sound.Volume != 0.2 {
		t.Errorf("Sound.Volume = %v, want 0.2", cfg.Sound.Volume)
	}
	if cfg.Session.TickInterval != 50*time.Millisecond {
		t.Errorf("Session.TickInterval = %v, want 50ms", cfg.Session.TickInterval)
	}
}

func TestDefaultIsSelfConsistent(t *testing.T) {
	cfg := Default()

	if cfg.Session.TickInterval <= 0 {
		t.Error("tick interval must be positive")
	}
	if cfg.Sound.Volume < 0 || cfg.Sound.Volume > 1 {
		t.Errorf("volume %v out of range", cfg.Sound.Volume)
	}
	for name, path := range map[string]string{
		"journal": cfg.Paths.Journal,
		"log":     cfg.Paths.Log,
		"socket":  cfg.Paths.Socket,
		"session": cfg.Paths.Session,
		"db":      cfg.Paths.DB,
		"catalog": cfg.Paths.Catalog,
	} {
		if path == "" {
			t.Errorf("default %s path is empty", name)
		}
	}
}
