package model

import "fmt"

// Status is the terminal outcome of a single identity run.
type Status int

const (
	StatusInit Status = iota
	StatusOK
	StatusTimeout
	StatusMQTTError
)

// String returns the persisted form of the status.
func (s Status) String() string {
	switch s {
	case StatusInit:
		return "INIT"
	case StatusOK:
		return "OK"
	case StatusTimeout:
		return "TIMEOUT"
	case StatusMQTTError:
		return "MQTT_ERROR"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status ends a run.
func (s Status) Terminal() bool {
	return s == StatusOK || s == StatusTimeout || s == StatusMQTTError
}

// ParseStatus is the inverse of String.
func ParseStatus(v string) (Status, error) {
	switch v {
	case "INIT":
		return StatusInit, nil
	case "OK":
		return StatusOK, nil
	case "TIMEOUT":
		return StatusTimeout, nil
	case "MQTT_ERROR":
		return StatusMQTTError, nil
	default:
		return StatusInit, fmt.Errorf("unknown status %q", v)
	}
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(b []byte) error {
	v, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
