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

	"github.com/kilianp07/dockid/core/metrics"
	"github.com/kilianp07/dockid/infra/history"
	"github.com/kilianp07/dockid/infra/monitoring"
	"github.com/kilianp07/dockid/infra/mqtt"
)

// EnvPrefix prefixes environment overrides, e.g. DOCKID_MQTT__BROKER.
const EnvPrefix = "DOCKID_"

type Config struct {
	MQTT       mqtt.Config             `json:"mqtt"`
	Interfaces InterfacesConfig        `json:"interfaces"`
	Output     OutputConfig            `json:"output"`
	Logging    LoggingConfig           `json:"logging"`
	Metrics    metrics.Config          `json:"metrics"`
	Sentry     monitoring.SentryConfig `json:"sentry"`
	History    history.Config          `json:"history"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

// SetDefaults applies the defaults of every section.
func (c *Config) SetDefaults() {
	c.MQTT.SetDefaults()
	c.Interfaces.SetDefaults()
	c.Output.SetDefaults()
	c.Logging.SetDefaults()
	c.History.SetDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.MQTT.Validate(); err != nil {
		return err
	}
	if err := c.Output.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	return c.History.Validate()
}

// Load reads the configuration file at path, applies environment overrides
// and defaults. An empty path skips the file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
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
	}
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKey), nil); err != nil {
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

// envKey maps DOCKID_MQTT__BROKER to mqtt.broker. List values are comma
// separated.
func envKey(key, value string) (string, any) {
	key = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), "__", ".")
	if key == "interfaces.preferred" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return key, out
	}
	return key, value
}
