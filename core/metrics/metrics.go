package metrics

import (
	"errors"
	"time"

	"github.com/kilianp07/dockid/core/model"
)

// RunEvent describes one finished run.
type RunEvent struct {
	Result   model.Result
	Messages int           // broker messages received during the wait
	Wait     time.Duration // time spent blocked on the completion signal
	Duration time.Duration // whole run, resolve to persist
	Time     time.Time
}

// RunRecorder records finished runs for observability purposes.
type RunRecorder interface {
	RecordRun(ev RunEvent) error
}

// Flusher is implemented by recorders that buffer output until the process
// is about to exit.
type Flusher interface {
	Flush() error
}

// NopSink implements RunRecorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordRun(RunEvent) error { return nil }

// MultiRecorder fans out runs to multiple recorders.
type MultiRecorder struct {
	Recorders []RunRecorder
}

// NewMultiRecorder combines recorders.
func NewMultiRecorder(recs ...RunRecorder) *MultiRecorder {
	return &MultiRecorder{Recorders: recs}
}

// RecordRun forwards the event to every recorder. A failing recorder does not
// prevent the others from seeing the event; all errors are joined.
func (m *MultiRecorder) RecordRun(ev RunEvent) error {
	var errs []error
	for _, r := range m.Recorders {
		if err := r.RecordRun(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Flush flushes every recorder implementing Flusher.
func (m *MultiRecorder) Flush() error {
	var errs []error
	for _, r := range m.Recorders {
		if f, ok := r.(Flusher); ok {
			if err := f.Flush(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
