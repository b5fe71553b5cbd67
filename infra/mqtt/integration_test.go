package mqtt_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/dockid/core/model"
	"github.com/kilianp07/dockid/infra/mqtt"
	"github.com/kilianp07/dockid/simulator"
	"github.com/kilianp07/dockid/test/util"
)

func startBroker(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping broker integration test in short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	broker, cleanup, err := util.StartMosquitto(ctx)
	if err != nil {
		t.Skipf("mosquitto unavailable: %v", err)
	}
	t.Cleanup(cleanup)
	return broker
}

func TestFetcherAgainstMosquitto(t *testing.T) {
	broker := startBroker(t)

	cfg := mqtt.Config{Broker: broker, WaitTimeoutSeconds: 5}
	cfg.SetDefaults()
	pub := simulator.NewPublisher(broker, cfg.Topics(), 5*time.Second)
	require.NoError(t, pub.Publish(context.Background(), simulator.Vehicle{VIN: "WVW1234\n", VehicleID: " VID-9 "}))

	f, err := mqtt.NewFetcher(cfg)
	require.NoError(t, err)

	res := model.NewResult()
	require.NoError(t, f.Fetch(context.Background(), res))
	assert.Equal(t, model.StatusOK, res.Status)
	assert.Equal(t, "VID-9", res.VehicleID)
	// VIN is best effort: it arrives with its own SUBACK, normally first.
	if res.VIN != "" {
		assert.Equal(t, "WVW1234", res.VIN)
	}
}

func TestFetcherTimesOutOnEmptyBroker(t *testing.T) {
	broker := startBroker(t)

	cfg := mqtt.Config{Broker: broker, WaitTimeoutSeconds: 1, VINTopic: "empty/VIN", VehicleIDTopic: "empty/UniqueId"}
	cfg.SetDefaults()
	f, err := mqtt.NewFetcher(cfg)
	require.NoError(t, err)

	res := model.NewResult()
	require.NoError(t, f.Fetch(context.Background(), res))
	assert.Equal(t, model.StatusTimeout, res.Status)
	assert.Empty(t, res.VehicleID)
}

func TestFetcherAfterVehicleLeaves(t *testing.T) {
	broker := startBroker(t)

	cfg := mqtt.Config{Broker: broker, WaitTimeoutSeconds: 1, VINTopic: "dock2/VIN", VehicleIDTopic: "dock2/UniqueId"}
	cfg.SetDefaults()
	pub := simulator.NewPublisher(broker, cfg.Topics(), 5*time.Second)
	ctx := context.Background()
	require.NoError(t, pub.Publish(ctx, simulator.Vehicle{VIN: "WVW1234", VehicleID: "VID-9"}))

	f, err := mqtt.NewFetcher(cfg)
	require.NoError(t, err)
	res := model.NewResult()
	require.NoError(t, f.Fetch(ctx, res))
	require.Equal(t, model.StatusOK, res.Status)

	require.NoError(t, pub.Clear(ctx))
	res = model.NewResult()
	require.NoError(t, f.Fetch(ctx, res))
	assert.Equal(t, model.StatusTimeout, res.Status)
	assert.Empty(t, res.VehicleID)
}

func TestFetcherConnectionRefused(t *testing.T) {
	cfg := mqtt.Config{Broker: "tcp://127.0.0.1:1", ConnectTimeoutSeconds: 1}
	cfg.SetDefaults()
	f, err := mqtt.NewFetcher(cfg)
	require.NoError(t, err)

	err = f.Fetch(context.Background(), model.NewResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tcp://127.0.0.1:1")
}
