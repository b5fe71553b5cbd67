package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/dockid/core/metrics"
	"github.com/kilianp07/dockid/core/model"
)

var allStatuses = []model.Status{model.StatusOK, model.StatusTimeout, model.StatusMQTTError}

// PromSink records runs in Prometheus metrics. Because a run is a one-shot
// process the metrics are exported through the node_exporter textfile
// collector format on Flush rather than served over HTTP.
type PromSink struct {
	reg      *prometheus.Registry
	textfile string

	runs     *prometheus.CounterVec
	status   *prometheus.GaugeVec
	messages prometheus.Counter
	wait     prometheus.Gauge
	duration prometheus.Gauge
	lastRun  prometheus.Gauge
	info     *prometheus.GaugeVec
}

// NewPromSink creates a sink on a private registry that writes to textfile
// on Flush. An empty textfile disables the export.
func NewPromSink(textfile string) (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.NewRegistry(), textfile)
}

// NewPromSinkWithRegistry registers metrics on the provided registry.
func NewPromSinkWithRegistry(reg *prometheus.Registry, textfile string) (*PromSink, error) {
	if reg == nil {
		return nil, errors.New("prometheus registry is nil")
	}
	s := &PromSink{reg: reg, textfile: textfile}
	var err error
	if s.runs, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dockid_runs_total",
		Help: "Number of identity runs by terminal status",
	}, []string{"status"})); err != nil {
		return nil, err
	}
	if s.status, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dockid_last_run_status",
		Help: "1 for the terminal status of the last run, 0 otherwise",
	}, []string{"status"})); err != nil {
		return nil, err
	}
	if s.messages, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dockid_broker_messages_received_total",
		Help: "Broker messages received on the identity topics",
	})); err != nil {
		return nil, err
	}
	if s.wait, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dockid_last_wait_seconds",
		Help: "Time the last run spent waiting for retained identity messages",
	})); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dockid_last_run_duration_seconds",
		Help: "Wall time of the last run",
	})); err != nil {
		return nil, err
	}
	if s.lastRun, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dockid_last_run_timestamp_seconds",
		Help: "Unix timestamp of the last run",
	})); err != nil {
		return nil, err
	}
	if s.info, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dockid_vehicle_info",
		Help: "Identity resolved by the last run, always 1",
	}, []string{"dock_mac", "vin", "vehicle_id"})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordRun updates all run metrics.
func (s *PromSink) RecordRun(ev coremetrics.RunEvent) error {
	res := ev.Result
	s.runs.WithLabelValues(res.Status.String()).Inc()
	for _, st := range allStatuses {
		v := 0.0
		if st == res.Status {
			v = 1
		}
		s.status.WithLabelValues(st.String()).Set(v)
	}
	s.messages.Add(float64(ev.Messages))
	s.wait.Set(ev.Wait.Seconds())
	s.duration.Set(ev.Duration.Seconds())
	s.lastRun.Set(float64(ev.Time.Unix()))
	s.info.Reset()
	s.info.WithLabelValues(res.DockMAC, res.VIN, res.VehicleID).Set(1)
	return nil
}

// Flush writes the registry to the textfile, if one is configured.
func (s *PromSink) Flush() error {
	if s.textfile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(s.textfile, s.reg); err != nil {
		return fmt.Errorf("write prometheus textfile: %w", err)
	}
	return nil
}
