package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/jask/jaskrecon/internal/reconcile"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Matching MatchingConfig `mapstructure:"matching"`
	Log      LogConfig      `mapstructure:"log"`
	UI       UIConfig       `mapstructure:"ui"`
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// MatchingConfig holds the reconciliation thresholds.
type MatchingConfig struct {
	NoiseFloor     float64 `mapstructure:"noise_floor"`
	HighConfidence float64 `mapstructure:"high_confidence"`
	PartialPrefix  int     `mapstructure:"partial_prefix"`
	Workers        int     `mapstructure:"workers"`
}

// LogConfig selects zap's level and encoder.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// UIConfig holds presentation settings.
type UIConfig struct {
	CurrencySymbol string `mapstructure:"currency_symbol"`
}

// Engine converts the matching section into engine settings.
func (m MatchingConfig) Engine() reconcile.Config {
	return reconcile.Config{
		NoiseFloor:     m.NoiseFloor,
		HighConfidence: m.HighConfidence,
		PartialPrefix:  m.PartialPrefix,
		Workers:        m.Workers,
	}
}

// Path returns the config file location: $JASKRECON_CONFIG or
// ~/.config/jaskrecon/config.toml.
func Path() string {
	if p := os.Getenv("JASKRECON_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "jaskrecon", "config.toml")
}

// Load reads configuration from file and env. Env var overrides use prefix JASKRECON_.
func Load() (Config, error) {
	return LoadFile(Path())
}

// LoadFile is Load with an explicit file. A missing file is not an error.
func LoadFile(path string) (Config, error) {
	v := viper.New()

	def := reconcile.DefaultConfig()
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "jaskrecon", "jaskrecon.db"))
	v.SetDefault("matching.noise_floor", def.NoiseFloor)
	v.SetDefault("matching.high_confidence", def.HighConfidence)
	v.SetDefault("matching.partial_prefix", def.PartialPrefix)
	v.SetDefault("matching.workers", def.Workers)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("ui.currency_symbol", "R$")

	v.SetConfigType("toml")
	v.SetConfigFile(path)

	v.SetEnvPrefix("JASKRECON")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Save writes the provided config to disk, creating the config directory if needed.
func Save(cfg Config) error {
	return SaveFile(Path(), cfg)
}

func SaveFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("matching.noise_floor", cfg.Matching.NoiseFloor)
	v.Set("matching.high_confidence", cfg.Matching.HighConfidence)
	v.Set("matching.partial_prefix", cfg.Matching.PartialPrefix)
	v.Set("matching.workers", cfg.Matching.Workers)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.format", cfg.Log.Format)
	v.Set("ui.currency_symbol", cfg.UI.CurrencySymbol)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
