package simulator

import (
	"context"
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/dockid/core/model"
)

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  string
}

type fakeClient struct {
	opts         *paho.ClientOptions
	connectErr   error
	publishErr   error
	pending      bool
	sent         []published
	disconnected bool
}

func (f *fakeClient) Connect() paho.Token { return token{err: f.connectErr, pending: f.pending} }
func (f *fakeClient) Disconnect(uint)     { f.disconnected = true }
func (f *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	f.sent = append(f.sent, published{topic, qos, retained, payload.(string)})
	return token{err: f.publishErr}
}

type token struct {
	err     error
	pending bool
}

func (t token) Wait() bool                     { return !t.pending }
func (t token) WaitTimeout(time.Duration) bool { return !t.pending }
func (t token) Done() <-chan struct{} {
	ch := make(chan struct{})
	if !t.pending {
		close(ch)
	}
	return ch
}
func (t token) Error() error { return t.err }

var topics = model.Topics{VIN: "DB/vehicle/VIN", VehicleID: "DB/vehicle/UniqueId"}

func useClient(t *testing.T, f *fakeClient) {
	t.Helper()
	orig := newMQTTClient
	newMQTTClient = func(opts *paho.ClientOptions) mqttClient {
		f.opts = opts
		return f
	}
	t.Cleanup(func() { newMQTTClient = orig })
}

func TestPublishRetainsIdentity(t *testing.T) {
	f := &fakeClient{}
	useClient(t, f)

	p := NewPublisher("tcp://broker:1883", topics, time.Second)
	require.NoError(t, p.Publish(context.Background(), Vehicle{VIN: "WVW1234", VehicleID: "VID-9"}))

	assert.Equal(t, []published{
		{"DB/vehicle/VIN", 1, true, "WVW1234"},
		{"DB/vehicle/UniqueId", 1, true, "VID-9"},
	}, f.sent)
	assert.True(t, f.disconnected)
	assert.Equal(t, "tcp://broker:1883", f.opts.Servers[0].String())
}

func TestPublishSkipsEmptyFields(t *testing.T) {
	f := &fakeClient{}
	useClient(t, f)

	p := NewPublisher("tcp://broker:1883", topics, time.Second)
	require.NoError(t, p.Publish(context.Background(), Vehicle{VehicleID: "VID-9"}))
	require.Len(t, f.sent, 1)
	assert.Equal(t, "DB/vehicle/UniqueId", f.sent[0].topic)
}

func TestClearSendsEmptyRetained(t *testing.T) {
	f := &fakeClient{}
	useClient(t, f)

	p := NewPublisher("tcp://broker:1883", topics, time.Second)
	require.NoError(t, p.Clear(context.Background()))
	require.Len(t, f.sent, 2)
	for _, s := range f.sent {
		assert.True(t, s.retained)
		assert.Empty(t, s.payload)
	}
}

func TestPublishErrors(t *testing.T) {
	t.Run("connect", func(t *testing.T) {
		f := &fakeClient{connectErr: errors.New("refused")}
		useClient(t, f)
		err := NewPublisher("tcp://broker:1883", topics, time.Second).Publish(context.Background(), Vehicle{VehicleID: "x"})
		assert.ErrorContains(t, err, "refused")
		assert.Empty(t, f.sent)
	})
	t.Run("publish", func(t *testing.T) {
		f := &fakeClient{publishErr: errors.New("not authorized")}
		useClient(t, f)
		err := NewPublisher("tcp://broker:1883", topics, time.Second).Publish(context.Background(), Vehicle{VehicleID: "x"})
		assert.ErrorContains(t, err, "publish DB/vehicle/UniqueId")
	})
	t.Run("timeout", func(t *testing.T) {
		f := &fakeClient{pending: true}
		useClient(t, f)
		err := NewPublisher("tcp://broker:1883", topics, 20*time.Millisecond).Publish(context.Background(), Vehicle{VehicleID: "x"})
		assert.ErrorContains(t, err, "no broker response")
		assert.True(t, f.disconnected)
	})
	t.Run("cancelled", func(t *testing.T) {
		f := &fakeClient{pending: true}
		useClient(t, f)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := NewPublisher("tcp://broker:1883", topics, time.Second).Publish(ctx, Vehicle{VehicleID: "x"})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
