// Package monitoring defines the error reporter used across dockid and the
// process-wide instance the CLI installs at startup.
package monitoring

import "time"

// Monitor reports errors and panics to an external service.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

// NopMonitor drops every report. It is installed until Init is called.
type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

var current Monitor = NopMonitor{}

// Init installs m as the process-wide monitor. A nil m is ignored.
func Init(m Monitor) {
	if m != nil {
		current = m
	}
}

// Current returns the installed monitor.
func Current() Monitor { return current }

// CaptureException reports err with optional tags.
func CaptureException(err error, tags map[string]string) { current.CaptureException(err, tags) }

// Flush waits up to d for buffered reports to be sent.
func Flush(d time.Duration) { current.Flush(d) }
