package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/dockid/core/metrics"
	"github.com/kilianp07/dockid/infra/logger"
)

// InfluxSink writes one point per run to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger

	// checkHealth defers a health check to the first RecordRun.
	checkHealth bool
	once        sync.Once
	disabled    bool
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback returns a sink that pings the InfluxDB instance
// before its first write and drops every run if the health check fails.
// Construction does no I/O.
func NewInfluxSinkWithFallback(url, token, org, bucket string) *InfluxSink {
	sink := NewInfluxSink(url, token, org, bucket)
	sink.checkHealth = true
	return sink
}

func (s *InfluxSink) verifyHealth() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	health, err := s.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			s.log.Errorf("influx health check error: %v", err)
		} else {
			s.log.Errorf("influx health status: %s", health.Status)
		}
		s.disabled = true
		s.client.Close()
	}
}

// Disabled reports whether the health check failed.
func (s *InfluxSink) Disabled() bool { return s.disabled }

// RunPoint converts a run into its line protocol point.
func RunPoint(ev coremetrics.RunEvent) *write.Point {
	res := ev.Result
	p := write.NewPointWithMeasurement("dock_identity").
		AddTag("status", res.Status.String()).
		AddTag("component", "dockid")
	if res.DockMAC != "" {
		p = p.AddTag("dock_mac", res.DockMAC)
	}
	return p.AddField("vin", res.VIN).
		AddField("vehicle_id", res.VehicleID).
		AddField("error", res.Error).
		AddField("messages", ev.Messages).
		AddField("wait_ms", round3(float64(ev.Wait)/float64(time.Millisecond))).
		SetTime(ev.Time)
}

// RecordRun writes the run as a single point.
func (s *InfluxSink) RecordRun(ev coremetrics.RunEvent) error {
	if s.checkHealth {
		s.once.Do(s.verifyHealth)
	}
	if s.disabled {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, RunPoint(ev))
}

// Flush releases the HTTP client.
func (s *InfluxSink) Flush() error {
	if s.disabled {
		return nil
	}
	s.client.Close()
	return nil
}

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
