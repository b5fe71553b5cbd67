package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/dockid/config"
	coremetrics "github.com/kilianp07/dockid/core/metrics"
	"github.com/kilianp07/dockid/core/model"
	coremon "github.com/kilianp07/dockid/core/monitoring"
	coremqtt "github.com/kilianp07/dockid/core/mqtt"
	"github.com/kilianp07/dockid/infra/history"
	"github.com/kilianp07/dockid/infra/logger"
	_ "github.com/kilianp07/dockid/infra/metrics" // registers metric sinks
	"github.com/kilianp07/dockid/infra/mqtt"
	"github.com/kilianp07/dockid/infra/netif"
	"github.com/kilianp07/dockid/infra/sink"
)

// MACResolver returns the dock MAC or one of the netif placeholders.
type MACResolver interface {
	Resolve(ctx context.Context) string
}

// Fetcher reads the vehicle identity from the broker and decides OK or
// TIMEOUT. Returned errors mean the broker could not be used.
type Fetcher interface {
	Fetch(ctx context.Context, res *model.Result) error
}

// StatsReporter is optionally implemented by a Fetcher.
type StatsReporter interface {
	LastStats() mqtt.FetchStats
}

// ResultSink persists the final Result.
type ResultSink interface {
	Persist(res model.Result) error
}

// Service runs the identification sequence once per Run.
type Service struct {
	resolver MACResolver
	fetcher  Fetcher
	sink     ResultSink
	recorder coremetrics.RunRecorder
	history  history.Store
	monitor  coremon.Monitor
	log      logger.Logger
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithResolver overrides the MAC resolver.
func WithResolver(r MACResolver) Option { return func(s *Service) { s.resolver = r } }

// WithFetcher overrides the broker fetcher.
func WithFetcher(f Fetcher) Option { return func(s *Service) { s.fetcher = f } }

// WithSink overrides the result sink.
func WithSink(rs ResultSink) Option { return func(s *Service) { s.sink = rs } }

// WithRecorder overrides the configured metric sinks.
func WithRecorder(r coremetrics.RunRecorder) Option { return func(s *Service) { s.recorder = r } }

// WithHistory overrides the configured history store.
func WithHistory(h history.Store) Option { return func(s *Service) { s.history = h } }

// WithMonitor overrides the global monitor.
func WithMonitor(m coremon.Monitor) Option { return func(s *Service) { s.monitor = m } }

// WithLogger overrides the service logger.
func WithLogger(l logger.Logger) Option { return func(s *Service) { s.log = l } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// New creates a Service from the configuration. Collaborators not supplied
// through options are built from cfg.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.New("service")
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.monitor == nil {
		s.monitor = coremon.Current()
	}
	if s.resolver == nil {
		s.resolver = netif.NewResolver(cfg.Interfaces.Preferred, netif.SystemLister)
	}
	if s.fetcher == nil {
		f, err := mqtt.NewFetcher(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt fetcher: %w", err)
		}
		s.fetcher = f
	}
	if s.sink == nil {
		s.sink = sink.NewFileSink(cfg.Output.Dir)
	}
	if s.recorder == nil {
		rec, err := coremetrics.NewRunRecorder(cfg.Metrics.Sinks)
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		s.recorder = rec
	}
	if s.history == nil {
		h, err := history.Open(cfg.History)
		if err != nil {
			s.log.Warnf("history disabled: %v", err)
			h = history.NopStore{}
		}
		s.history = h
	}
	return s, nil
}

// Start runs the sequence on a worker goroutine. The returned channel yields
// the final Result once and is then closed.
func (s *Service) Start(ctx context.Context) <-chan model.Result {
	out := make(chan model.Result, 1)
	go func() {
		defer close(out)
		defer s.monitor.Recover()
		out <- s.Run(ctx)
	}()
	return out
}

// Run resolves the dock MAC, fetches the vehicle identity, persists the
// artifacts and records the run. It always returns a terminal Result.
func (s *Service) Run(ctx context.Context) model.Result {
	start := s.now()
	res := model.NewResult()
	res.DockMAC = s.resolver.Resolve(ctx)
	s.log.Infof("dock mac %s", res.DockMAC)

	if err := s.fetcher.Fetch(ctx, res); err != nil {
		desc := coremqtt.Describe(err)
		s.log.Errorf("broker: %s", desc)
		s.monitor.CaptureException(err, map[string]string{
			"component": "mqtt",
			"dock_mac":  res.DockMAC,
			"error":     errorKind(err),
		})
		if ferr := res.Finish(model.StatusMQTTError, desc); ferr != nil {
			s.log.Warnf("finish result: %v", ferr)
		}
	}
	if !res.Done() {
		_ = res.Finish(model.StatusTimeout, "")
	}

	if err := s.sink.Persist(*res); err != nil {
		s.log.Warnf("persist result: %v", err)
	}

	ev := coremetrics.RunEvent{Result: *res, Duration: s.now().Sub(start), Time: start}
	rec := history.RunRecord{Timestamp: start, Result: *res}
	if sr, ok := s.fetcher.(StatsReporter); ok {
		st := sr.LastStats()
		ev.Messages, ev.Wait = st.Messages, st.Wait
		rec.ClientID, rec.Messages, rec.WaitMS = st.ClientID, st.Messages, st.Wait.Milliseconds()
	}
	if err := s.recorder.RecordRun(ev); err != nil {
		s.log.Warnf("record run: %v", err)
	}
	if err := s.history.Append(context.WithoutCancel(ctx), rec); err != nil {
		s.log.Warnf("history append: %v", err)
	}

	s.log.Infow("run finished", map[string]any{
		"status":     res.Status.String(),
		"dock_mac":   res.DockMAC,
		"vin":        res.VIN,
		"vehicle_id": res.VehicleID,
		"error":      res.Error,
	})
	return *res
}

// Close flushes buffered metrics and releases the history store.
func (s *Service) Close() error {
	var errs []error
	if f, ok := s.recorder.(coremetrics.Flusher); ok {
		if err := f.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("flush metrics: %w", err))
		}
	}
	if err := s.history.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close history: %w", err))
	}
	return errors.Join(errs...)
}

func errorKind(err error) string {
	var ce *coremqtt.ConnectionError
	var pe *coremqtt.ProtocolError
	switch {
	case errors.As(err, &ce):
		return "connection"
	case errors.As(err, &pe):
		return "protocol"
	default:
		return "other"
	}
}
