package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/theirongolddev/runway/internal/model"
	"github.com/theirongolddev/runway/internal/pipeline"
)

// Config holds all runway configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Units      UnitsConfig      `toml:"units"`
	Simulation SimulationConfig `toml:"simulation"`
	Export     ExportConfig     `toml:"export"`
	Appearance AppearanceConfig `toml:"appearance"`
	Server     ServerConfig     `toml:"server"`
	Log        LogConfig        `toml:"log"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	Policy string `toml:"policy"`
	Input  string `toml:"input,omitempty"`
}

// UnitsConfig names the unit system amounts are expressed in.
type UnitsConfig struct {
	DaysPerMonth float64 `toml:"days_per_month"`
	Currency     string  `toml:"currency"`
	Time         string  `toml:"time"`
}

// SimulationConfig holds the starting slider values and their ranges.
type SimulationConfig struct {
	Defaults      model.SimulationParams `toml:"defaults"`
	Bounds        model.Bounds           `toml:"bounds"`
	RateStep      float64                `toml:"rate_step"`
	InjectionStep float64                `toml:"injection_step"`
}

// ExportConfig holds the default export target.
type ExportConfig struct {
	Path   string `toml:"path"`
	Format string `toml:"format"` // xlsx or sqlite
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// ServerConfig holds settings for runway serve.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	units := model.DefaultUnits()
	return Config{
		General: GeneralConfig{
			Policy: model.PolicyPooledWeighted.String(),
		},
		Units: UnitsConfig{
			DaysPerMonth: units.DaysPerMonth,
			Currency:     units.Currency,
			Time:         units.Time,
		},
		Simulation: SimulationConfig{
			Bounds:        model.DefaultBounds(),
			RateStep:      5,
			InjectionStep: 100,
		},
		Export: ExportConfig{
			Path:   "cash-runway.xlsx",
			Format: "xlsx",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8787",
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "runway")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "runway")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// GetLogLevel returns the log level from env var or config, in that order.
func GetLogLevel(cfg Config) string {
	if lvl := os.Getenv("RUNWAY_LOG_LEVEL"); lvl != "" {
		return lvl
	}
	return cfg.Log.Level
}

// GetInput returns the input file from env var or config, in that order.
// An empty result means the built-in sample dataset.
func GetInput(cfg Config) string {
	if in := os.Getenv("RUNWAY_INPUT"); in != "" {
		return in
	}
	return cfg.General.Input
}

// Options resolves the policy and unit settings into computation options.
func (c Config) Options() (pipeline.Options, error) {
	policy, err := model.ParsePolicy(c.General.Policy)
	if err != nil {
		return pipeline.DefaultOptions(), fmt.Errorf("general.policy: %w", err)
	}

	opts := pipeline.DefaultOptions()
	opts.Policy = policy
	if c.Units.DaysPerMonth > 0 {
		opts.Units.DaysPerMonth = c.Units.DaysPerMonth
	}
	if c.Units.Currency != "" {
		opts.Units.Currency = c.Units.Currency
	}
	if c.Units.Time != "" {
		opts.Units.Time = c.Units.Time
	}
	return opts, nil
}

// Bounds returns the slider ranges, falling back to the defaults when the
// configured range is empty or inverted.
func (c Config) Bounds() model.Bounds {
	b := c.Simulation.Bounds
	def := model.DefaultBounds()
	if b.TPMax <= b.TPMin {
		b.TPMin, b.TPMax = def.TPMin, def.TPMax
	}
	if b.LTMax <= b.LTMin {
		b.LTMin, b.LTMax = def.LTMin, def.LTMax
	}
	return b
}
