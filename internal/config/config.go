// Package config loads the toolkit's YAML configuration file and fills
// in defaults for anything left out.
package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full configuration tree.
type Config struct {
	Paths   Paths   `yaml:"paths"`
	Window  Window  `yaml:"window"`
	Corr    Corr    `yaml:"corr"`
	Dvv     Dvv     `yaml:"dvv"`
	Cluster Cluster `yaml:"cluster"`

	// Removed in favor of corr.substack. Still parsed so old files
	// keep loading; supplying it warns instead of failing.
	SubstackLen *float64 `yaml:"substack_len"`
}

// Paths locates the data trees the commands operate on.
type Paths struct {
	RawDir     string `yaml:"raw_dir"`
	ArchiveDir string `yaml:"archive_dir"`
	CatalogDB  string `yaml:"catalog_db"`
	FigDir     string `yaml:"fig_dir"`
}

// Window controls how raw traces are cut before correlation.
type Window struct {
	LenSecs  float64 `yaml:"len_secs"`
	StepSecs float64 `yaml:"step_secs"`
}

// Corr controls correlation stacking and export.
type Corr struct {
	Substack bool    `yaml:"substack"`
	MaxLag   float64 `yaml:"max_lag"`
	Side     string  `yaml:"side"`
}

// Dvv controls velocity-change measurement.
type Dvv struct {
	FreqMin float64 `yaml:"freq_min"`
	FreqMax float64 `yaml:"freq_max"`
	MinLag  float64 `yaml:"min_lag"`
	MaxLag  float64 `yaml:"max_lag"`
	MaxDvv  float64 `yaml:"max_dvv"`
	Steps   int     `yaml:"steps"`
}

// Cluster controls waveform clustering.
type Cluster struct {
	K       int `yaml:"k"`
	MaxIter int `yaml:"max_iter"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Paths: Paths{
			RawDir:     "data/raw",
			ArchiveDir: "data/archive",
			CatalogDB:  "data/catalog.db",
			FigDir:     "figures",
		},
		Window: Window{LenSecs: 3600, StepSecs: 1800},
		Corr:   Corr{Substack: true, MaxLag: 200, Side: "A"},
		Dvv: Dvv{
			FreqMin: 0.1, FreqMax: 1.0,
			MinLag: 5, MaxLag: 50,
			MaxDvv: 2, Steps: 201,
		},
		Cluster: Cluster{K: 4, MaxIter: 300},
	}
}

// Load reads the configuration at path, layered over the defaults.
func Load(path string, logger *slog.Logger) (*Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if cfg.SubstackLen != nil {
		logger.Warn("substack_len was removed and is ignored; use corr.substack",
			"path", path, "substack_len", *cfg.SubstackLen)
		cfg.SubstackLen = nil
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Window.LenSecs <= 0 || c.Window.StepSecs <= 0 {
		return fmt.Errorf("window lengths must be positive, got len=%g step=%g",
			c.Window.LenSecs, c.Window.StepSecs)
	}
	if c.Corr.MaxLag <= 0 {
		return fmt.Errorf("corr.max_lag must be positive, got %g", c.Corr.MaxLag)
	}
	switch c.Corr.Side {
	case "A", "P", "N":
	default:
		return fmt.Errorf("corr.side must be A, P or N, got %q", c.Corr.Side)
	}
	if c.Dvv.FreqMin <= 0 || c.Dvv.FreqMax <= c.Dvv.FreqMin {
		return fmt.Errorf("dvv band %g-%g Hz is not ordered", c.Dvv.FreqMin, c.Dvv.FreqMax)
	}
	if c.Dvv.MinLag < 0 || c.Dvv.MaxLag <= c.Dvv.MinLag {
		return fmt.Errorf("dvv lag window %g-%g s is not ordered", c.Dvv.MinLag, c.Dvv.MaxLag)
	}
	if c.Cluster.K <= 0 {
		return fmt.Errorf("cluster.k must be positive, got %d", c.Cluster.K)
	}
	return nil
}
