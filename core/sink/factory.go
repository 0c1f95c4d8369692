package sink

import (
	"fmt"

	"github.com/kilianp07/lrinject/core/factory"
)

var registry = factory.NewRegistry[Sink]()

// RegisterSink adds a sink factory identified by name.
func RegisterSink(name string, f factory.Factory[Sink]) error {
	return registry.Register(name, f)
}

// Registered lists the available sink types.
func Registered() []string { return registry.Names() }

// Config selects the sinks events are forwarded to.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// RateLimit caps emitted events per second. Zero disables pacing.
	RateLimit float64 `json:"rate_limit"`
	Burst     int     `json:"burst"`
	// TapBuffer is the per subscriber buffer of the in-process event tap.
	TapBuffer int `json:"tap_buffer"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.TapBuffer <= 0 {
		c.TapBuffer = 256
	}
	if c.RateLimit > 0 && c.Burst <= 0 {
		c.Burst = 1
	}
}

// Validate checks the sink list.
func (c Config) Validate() error {
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative")
	}
	for i, s := range c.Sinks {
		if s.Type == "" {
			return fmt.Errorf("sinks[%d]: type is required", i)
		}
	}
	return nil
}

// NewSink creates a Sink from the provided configuration. Several sinks are
// combined in a MultiSink; an empty list yields a NopSink.
func NewSink(cfgs []factory.ModuleConfig) (Sink, error) {
	if len(cfgs) == 0 {
		return NopSink{}, nil
	}
	if len(cfgs) == 1 {
		return registry.Create(cfgs[0])
	}
	sinks := make([]Sink, 0, len(cfgs))
	for _, c := range cfgs {
		s, err := registry.Create(c)
		if err != nil {
			_ = NewMultiSink(sinks...).Close()
			return nil, err
		}
		sinks = append(sinks, s)
	}
	return NewMultiSink(sinks...), nil
}

// Build creates the configured sinks and applies rate limiting.
func Build(cfg Config) (Sink, error) {
	s, err := NewSink(cfg.Sinks)
	if err != nil {
		return nil, err
	}
	if cfg.RateLimit > 0 {
		s = NewRateLimitedSink(s, cfg.RateLimit, cfg.Burst)
	}
	return s, nil
}
