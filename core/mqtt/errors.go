package mqtt

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrConnectTimeout is returned when the broker does not answer CONNECT in time.
	ErrConnectTimeout = errors.New("timeout waiting for connack")
	// ErrSubscribeTimeout is returned when a SUBSCRIBE is not acknowledged in time.
	ErrSubscribeTimeout = errors.New("timeout waiting for suback")
	// ErrSubscribeRejected is returned when the broker answers SUBACK with a failure code.
	ErrSubscribeRejected = errors.New("subscription rejected by broker")
)

// ConnectionError reports a transport or CONNECT failure.
type ConnectionError struct {
	Broker string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Broker, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ProtocolError reports a SUBSCRIBE failure on a topic.
type ProtocolError struct {
	Topic string
	Err   error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("subscribe %s: %v", e.Topic, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// Describe renders err as "<Kind>: <message>" for the persisted error field.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return "ConnectionError: " + connErr.Error()
	}
	var protoErr *ProtocolError
	if errors.As(err, &protoErr) {
		return "ProtocolError: " + protoErr.Error()
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := t.Name()
	if name == "" {
		name = "Error"
	}
	return name + ": " + err.Error()
}
