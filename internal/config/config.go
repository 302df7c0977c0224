package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config represents the top-level conciliar.yaml configuration.
type Config struct {
	// Tolerance is a pointer so an explicit 0 (exact matching) is
	// distinguishable from an absent key, which means the default.
	Tolerance *float64     `yaml:"tolerance"`
	Strict    StrictConfig `yaml:"strict"`
	Export    ExportConfig `yaml:"export"`
}

// ToleranceDecimal returns the tolerance as the exact decimal the engine
// compares with.
func (c *Config) ToleranceDecimal() decimal.Decimal {
	if c.Tolerance == nil {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromFloat(*c.Tolerance)
}

// StrictConfig toggles strict parse modes. Both default to the lenient
// behavior real exports need.
type StrictConfig struct {
	// Totals fails a load when the export carries more than one global
	// total row instead of taking the first.
	Totals bool `yaml:"totals"`
	// Amounts fails a load on any unreadable amount cell instead of
	// coercing it to zero.
	Amounts bool `yaml:"amounts"`
}

// ExportConfig controls where and how result tables are written.
type ExportConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"` // "csv" or "xlsx"
}

// Load reads a conciliar.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Tolerance == nil {
		cfg.Tolerance = Default().Tolerance
	}
	if cfg.Export.Format == "" {
		cfg.Export.Format = Default().Export.Format
	}
	if cfg.Export.Dir == "" {
		cfg.Export.Dir = Default().Export.Dir
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns the lenient defaults: one currency unit of tolerance,
// first-wins total handling, zero-coerced amounts.
func Default() *Config {
	tolerance := 1.0
	return &Config{
		Tolerance: &tolerance,
		Export: ExportConfig{
			Dir:    "out",
			Format: "csv",
		},
	}
}
