package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/theirongolddev/runway/internal/model"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if Exists() {
		t.Fatal("Exists() = true for empty config dir")
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Units.DaysPerMonth != 30 || cfg.Export.Path != "cash-runway.xlsx" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.General.Policy = "per-product-averaged"
	cfg.Units.DaysPerMonth = 28
	cfg.Simulation.Defaults = model.SimulationParams{TPRate: 10, LTRate: 5, CashInjection: 300}
	cfg.Appearance.Theme = "tokyo-night"

	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(ConfigPath())
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config perm = %o, want 600", perm)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != cfg {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, cfg)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path := filepath.Join(dir, "runway", "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	data := "[general]\npolicy = \"b\"\n\n[simulation.bounds]\ntp_min = -10\ntp_max = 20\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	opts, err := cfg.Options()
	if err != nil {
		t.Fatalf("Options: %v", err)
	}
	if opts.Policy != model.PolicyPerProductAveraged {
		t.Errorf("policy = %v, want per-product-averaged", opts.Policy)
	}
	if opts.Units.DaysPerMonth != 30 {
		t.Errorf("days per month = %v, want default 30", opts.Units.DaysPerMonth)
	}

	b := cfg.Bounds()
	if b.TPMin != -10 || b.TPMax != 20 {
		t.Errorf("tp bounds = [%v, %v], want [-10, 20]", b.TPMin, b.TPMax)
	}
	if b.LTMin != -50 || b.LTMax != 50 {
		t.Errorf("lt bounds = [%v, %v], want defaults", b.LTMin, b.LTMax)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	path := filepath.Join(dir, "runway", "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("[general\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Fatal("Load accepted malformed TOML")
	}
}

func TestOptions_UnknownPolicy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.General.Policy = "median"
	if _, err := cfg.Options(); err == nil {
		t.Fatal("Options accepted unknown policy")
	}
}

func TestEnvOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.General.Input = "from-config.yaml"

	t.Setenv("RUNWAY_INPUT", "")
	t.Setenv("RUNWAY_LOG_LEVEL", "")
	if GetInput(cfg) != "from-config.yaml" || GetLogLevel(cfg) != "warn" {
		t.Fatalf("config values not used: %q %q", GetInput(cfg), GetLogLevel(cfg))
	}

	t.Setenv("RUNWAY_INPUT", "from-env.toml")
	t.Setenv("RUNWAY_LOG_LEVEL", "debug")
	if GetInput(cfg) != "from-env.toml" || GetLogLevel(cfg) != "debug" {
		t.Fatalf("env overrides ignored: %q %q", GetInput(cfg), GetLogLevel(cfg))
	}
}
