package config

import (
	"fmt"
	"strings"

	"github.com/kilianp07/dockid/infra/netif"
)

// InterfacesConfig controls the dock MAC lookup.
type InterfacesConfig struct {
	// Preferred interface names, matched case-insensitively in order.
	Preferred []string `json:"preferred"`
}

// SetDefaults applies the dock preference order.
func (c *InterfacesConfig) SetDefaults() {
	if len(c.Preferred) == 0 {
		c.Preferred = append([]string(nil), netif.DefaultPreferred...)
	}
}

// OutputConfig selects where run artifacts are written.
type OutputConfig struct {
	Dir string `json:"dir"`
}

// SetDefaults applies sane defaults.
func (c *OutputConfig) SetDefaults() {
	if c.Dir == "" {
		c.Dir = "output"
	}
}

// Validate checks mandatory fields.
func (c OutputConfig) Validate() error {
	if strings.TrimSpace(c.Dir) == "" {
		return fmt.Errorf("output dir is required")
	}
	return nil
}

// LoggingConfig defines the process log verbosity.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

// Validate checks the level name.
func (c LoggingConfig) Validate() error {
	switch strings.ToLower(c.Level) {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("unknown log level %s", c.Level)
	}
}
