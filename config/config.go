package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/lrinject/core/injector"
	"github.com/kilianp07/lrinject/core/metrics"
	"github.com/kilianp07/lrinject/core/sink"
	"github.com/kilianp07/lrinject/infra/coordinator"
)

type Config struct {
	Coordinator coordinator.Config `json:"coordinator"`
	Injector    injector.Config    `json:"injector"`
	Driver      DriverConfig       `json:"driver"`
	Sink        sink.Config        `json:"sink"`
	Metrics     metrics.Config     `json:"metrics"`
	Sentry      SentryConfig       `json:"sentry"`
	Log         LogConfig          `json:"log"`
}

// Load reads a YAML or JSON file, applies K_ prefixed environment overrides
// (K_INJECTOR__DATA_FILE sets injector.data_file), then defaults and
// validation.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies the defaults of every section.
func (c *Config) SetDefaults() {
	c.Coordinator.SetDefaults()
	c.Injector.SetDefaults()
	c.Driver.SetDefaults()
	c.Sink.SetDefaults()
	c.Metrics.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	checks := []struct {
		section string
		err     error
	}{
		{"coordinator", c.Coordinator.Validate()},
		{"injector", c.Injector.Validate()},
		{"driver", c.Driver.Validate()},
		{"sink", c.Sink.Validate()},
		{"metrics", c.Metrics.Validate()},
		{"sentry", c.Sentry.Validate()},
		{"log", c.Log.Validate()},
	}
	for _, ch := range checks {
		if ch.err != nil {
			return fmt.Errorf("%s: %w", ch.section, ch.err)
		}
	}
	return nil
}
