package mqtt

import (
	"fmt"
	"time"

	"github.com/kilianp07/dockid/core/model"
)

// Config defines the broker connection and the identity topics.
type Config struct {
	Broker                string `json:"broker"`
	ClientIDPrefix        string `json:"client_id_prefix"`
	VINTopic              string `json:"vin_topic"`
	VehicleIDTopic        string `json:"vehicle_id_topic"`
	WaitTimeoutSeconds    int    `json:"wait_timeout_seconds"`
	ConnectTimeoutSeconds int    `json:"connect_timeout_seconds"`
}

// SetDefaults applies the dock network defaults.
func (c *Config) SetDefaults() {
	if c.Broker == "" {
		c.Broker = "tcp://192.168.130.11:1883"
	}
	if c.ClientIDPrefix == "" {
		c.ClientIDPrefix = "dockmqtt"
	}
	if c.VINTopic == "" {
		c.VINTopic = "DB/vehicle/VIN"
	}
	if c.VehicleIDTopic == "" {
		c.VehicleIDTopic = "DB/vehicle/UniqueId"
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("mqtt broker is required")
	}
	if c.VINTopic == "" || c.VehicleIDTopic == "" {
		return fmt.Errorf("mqtt vin_topic and vehicle_id_topic are required")
	}
	if c.VINTopic == c.VehicleIDTopic {
		return fmt.Errorf("mqtt vin_topic and vehicle_id_topic must differ")
	}
	if c.WaitTimeoutSeconds < 0 || c.ConnectTimeoutSeconds < 0 {
		return fmt.Errorf("mqtt timeouts must not be negative")
	}
	return nil
}

// Topics returns the identity topics.
func (c Config) Topics() model.Topics {
	return model.Topics{VIN: c.VINTopic, VehicleID: c.VehicleIDTopic}
}

// WaitTimeout bounds the wait for retained messages.
func (c Config) WaitTimeout() time.Duration {
	if c.WaitTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.WaitTimeoutSeconds) * time.Second
}

// ConnectTimeout bounds CONNECT and each SUBSCRIBE.
func (c Config) ConnectTimeout() time.Duration {
	if c.ConnectTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.ConnectTimeoutSeconds) * time.Second
}
