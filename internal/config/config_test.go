package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/abelbrown/roomboard/internal/movecoord"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Coordination.Window != 150*time.Millisecond {
		t.Errorf("window = %v", cfg.Coordination.Window)
	}
	if cfg.MovePolicy() != movecoord.FIFO {
		t.Errorf("policy = %v", cfg.MovePolicy())
	}
	if cfg.UI.Theme != "dark" {
		t.Errorf("theme = %q", cfg.UI.Theme)
	}
}

func TestLoadFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.json")
	data := `{"coordination": {"window": "250ms", "policy": "lifo"}, "ui": {"theme": "light"}}`
	if err := os.WriteFile(p, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Coordination.Window != 250*time.Millisecond {
		t.Errorf("window = %v", cfg.Coordination.Window)
	}
	if cfg.MovePolicy() != movecoord.LIFO {
		t.Errorf("policy = %v", cfg.MovePolicy())
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("theme = %q", cfg.UI.Theme)
	}
	if cfg.Journal.Path == "" {
		t.Error("unset keys should keep defaults")
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("ROOMBOARD_COORDINATION_WINDOW", "40ms")
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Coordination.Window != 40*time.Millisecond {
		t.Errorf("window = %v", cfg.Coordination.Window)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Coordination.Policy = "random"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown policy")
	}
	cfg = DefaultConfig()
	cfg.Coordination.Window = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero window")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "sub", "config.json")
	cfg := DefaultConfig()
	cfg.Coordination.Window = 300 * time.Millisecond
	cfg.Document.Path = "/tmp/board.yaml"
	if err := cfg.SaveTo(p); err != nil {
		t.Fatal(err)
	}
	got, err := LoadFrom(p)
	if err != nil {
		t.Fatal(err)
	}
	if got.Coordination.Window != 300*time.Millisecond || got.Document.Path != "/tmp/board.yaml" {
		t.Errorf("loaded = %+v", got)
	}
}

func TestConfigPathEnv(t *testing.T) {
	t.Setenv("ROOMBOARD_CONFIG", "/etc/roomboard.json")
	if ConfigPath() != "/etc/roomboard.json" {
		t.Errorf("ConfigPath = %s", ConfigPath())
	}
}
