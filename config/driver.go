package config

import (
	"fmt"
	"time"
)

// UnlimitedPasses keeps the driver replaying the data file until stopped.
const UnlimitedPasses = -1

// DriverConfig controls how the service activates the injector.
type DriverConfig struct {
	// MaxPasses is the number of full passes over the data file once the
	// history is loaded. -1 runs until the context is cancelled.
	MaxPasses int `json:"max_passes"`
	// PassIntervalMS is the pause between two passes.
	PassIntervalMS int `json:"pass_interval_ms"`
	// CheckLiveness sends ruok before the first activation.
	CheckLiveness bool `json:"check_liveness"`
	// ShutdownCoordinator sends shtdn once the last pass completed.
	ShutdownCoordinator bool `json:"shutdown_coordinator"`
}

// SetDefaults applies sane defaults.
func (c *DriverConfig) SetDefaults() {
	if c.MaxPasses == 0 {
		c.MaxPasses = 1
	}
}

// Validate checks the pass bounds.
func (c DriverConfig) Validate() error {
	if c.MaxPasses < UnlimitedPasses {
		return fmt.Errorf("max_passes must be positive or %d", UnlimitedPasses)
	}
	if c.PassIntervalMS < 0 {
		return fmt.Errorf("pass_interval_ms must not be negative")
	}
	return nil
}

// PassInterval returns the pause between passes.
func (c DriverConfig) PassInterval() time.Duration {
	return time.Duration(c.PassIntervalMS) * time.Millisecond
}
