package monitoring

import (
	"errors"
	"testing"
	"time"
)

type countingMonitor struct {
	captured int
	flushed  int
}

func (c *countingMonitor) CaptureException(error, map[string]string) { c.captured++ }
func (c *countingMonitor) Recover()                                  {}
func (c *countingMonitor) Flush(time.Duration)                       { c.flushed++ }

func TestInitIgnoresNil(t *testing.T) {
	orig := current
	t.Cleanup(func() { current = orig })

	m := &countingMonitor{}
	Init(m)
	Init(nil)
	if Current() != m {
		t.Fatalf("nil must not replace the installed monitor")
	}
	CaptureException(errors.New("boom"), map[string]string{"component": "mqtt"})
	Flush(time.Second)
	if m.captured != 1 || m.flushed != 1 {
		t.Errorf("unexpected calls: captured=%d flushed=%d", m.captured, m.flushed)
	}
}

func TestDefaultIsNop(t *testing.T) {
	if _, ok := Current().(NopMonitor); !ok {
		t.Fatalf("default monitor should be NopMonitor, got %T", Current())
	}
	CaptureException(errors.New("ignored"), nil)
	Flush(0)
}
