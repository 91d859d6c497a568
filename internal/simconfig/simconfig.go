// Package simconfig loads the simulator configuration from a YAML
// file, applies defaults and validates the required options before any
// simulation state is built.
package simconfig

import (
	"fmt"
	"os"

	"github.com/tinyrange/dramsim/internal/dram"
	"gopkg.in/yaml.v3"
)

// Defaults for the optional translation settings.
const (
	DefaultSeed          = 123
	DefaultPagesizeKB    = 4
	DefaultCooldown      = 2
	DefaultBandwidthGBps = 153.0
	DefaultScheme        = "ChRaBaRoCo"
)

// Config is the full simulator configuration.
type Config struct {
	Trace         TraceConfig       `yaml:"trace"`
	Translation   TranslationConfig `yaml:"translation"`
	AddressMapper string            `yaml:"address_mapper"`
	DRAM          dram.Organization `yaml:"dram"`
}

// TraceConfig locates the trace and sets the frontend clock ratio.
type TraceConfig struct {
	Path       string `yaml:"path"`
	ClockRatio uint   `yaml:"clock_ratio"`
}

// TranslationConfig carries the translation and migration options.
// A zero Seed means the default; pass an explicit nonzero seed for
// reproducible alternate runs.
type TranslationConfig struct {
	Seed             uint64  `yaml:"seed"`
	MaxAddr          uint64  `yaml:"max_addr"`
	PagesizeKB       uint64  `yaml:"pagesize_KB"`
	HotPageThreshold uint64  `yaml:"hot_page_threshold"`
	WindowSize       uint64  `yaml:"window_size"`
	CooldownWindows  int     `yaml:"cooldown_windows"`
	BandwidthGBps    float64 `yaml:"bandwidth_GBps"`
}

// PageSize returns the configured page size in bytes.
func (t TranslationConfig) PageSize() uint64 { return t.PagesizeKB << 10 }

// Load reads, defaults and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("simconfig: reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("simconfig: parsing config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Translation.Seed == 0 {
		c.Translation.Seed = DefaultSeed
	}
	if c.Translation.PagesizeKB == 0 {
		c.Translation.PagesizeKB = DefaultPagesizeKB
	}
	if c.Translation.CooldownWindows == 0 {
		c.Translation.CooldownWindows = DefaultCooldown
	}
	if c.Translation.BandwidthGBps == 0 {
		c.Translation.BandwidthGBps = DefaultBandwidthGBps
	}
	if c.AddressMapper == "" {
		c.AddressMapper = DefaultScheme
	}
	if len(c.DRAM.Levels) == 0 {
		c.DRAM = dram.DefaultOrganization()
	}
}

// Validate checks the required options.
func (c *Config) Validate() error {
	if c.Trace.Path == "" {
		return fmt.Errorf("simconfig: option %q is required", "path")
	}
	if c.Trace.ClockRatio == 0 {
		return fmt.Errorf("simconfig: option %q is required", "clock_ratio")
	}
	if c.Translation.MaxAddr == 0 {
		return fmt.Errorf("simconfig: option %q is required", "max_addr")
	}
	if c.Translation.HotPageThreshold == 0 {
		return fmt.Errorf("simconfig: option %q is required", "hot_page_threshold")
	}
	if c.Translation.WindowSize == 0 {
		return fmt.Errorf("simconfig: option %q is required", "window_size")
	}
	return nil
}
