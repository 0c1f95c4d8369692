package injector

import (
	"fmt"
	"time"
)

// Malformed record policies.
const (
	OnMalformedFail = "fail"
	OnMalformedSkip = "skip"
)

// Config controls how the data file is read.
type Config struct {
	DataFile       string `json:"data_file"`
	PollIntervalMS int    `json:"poll_interval_ms"`
	// OnMalformed is either "fail" or "skip".
	OnMalformed string `json:"on_malformed"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.PollIntervalMS <= 0 {
		c.PollIntervalMS = 1000
	}
	if c.OnMalformed == "" {
		c.OnMalformed = OnMalformedFail
	}
}

// Validate checks the file path and policy.
func (c Config) Validate() error {
	if c.DataFile == "" {
		return fmt.Errorf("injector: data_file is required")
	}
	if c.OnMalformed != OnMalformedFail && c.OnMalformed != OnMalformedSkip {
		return fmt.Errorf("injector: on_malformed must be %q or %q, got %q", OnMalformedFail, OnMalformedSkip, c.OnMalformed)
	}
	return nil
}

// PollInterval returns the wait between readiness queries.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}
