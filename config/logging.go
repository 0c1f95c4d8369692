package config

import (
	"fmt"

	"github.com/rs/zerolog"
)

// LogConfig selects the minimum log level.
type LogConfig struct {
	// Level is one of trace, debug, info, warn, error. Empty keeps info.
	Level string `json:"level"`
}

// Validate checks the level name.
func (c LogConfig) Validate() error {
	if c.Level == "" {
		return nil
	}
	if _, err := zerolog.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("unknown level %q", c.Level)
	}
	return nil
}
