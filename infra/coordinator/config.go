package coordinator

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Config locates the history loading notifier.
type Config struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	// DialTimeoutMS bounds connection setup. Negative disables the timeout.
	DialTimeoutMS int `json:"dial_timeout_ms"`
	// ReadTimeoutMS bounds the write and reply of one command. Negative
	// disables the timeout.
	ReadTimeoutMS int `json:"read_timeout_ms"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 8084
	}
	if c.DialTimeoutMS == 0 {
		c.DialTimeoutMS = 5000
	}
	if c.ReadTimeoutMS == 0 {
		c.ReadTimeoutMS = 5000
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("coordinator host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("coordinator port %d out of range", c.Port)
	}
	return nil
}

// Address returns host:port.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func millis(ms int) time.Duration {
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}
