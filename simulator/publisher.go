// Package simulator stands in for the dock router: it publishes the vehicle
// identity as retained messages so dockid can be exercised without a car.
package simulator

import (
	"context"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/dockid/core/model"
	"github.com/kilianp07/dockid/infra/logger"
)

// publishQoS makes the broker acknowledge each retained message.
const publishQoS = 1

type mqttClient interface {
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) mqttClient {
	return paho.NewClient(opts)
}

// Vehicle is the identity announced for a parked vehicle.
type Vehicle struct {
	VIN       string
	VehicleID string
}

// Publisher writes retained identity messages to a broker.
type Publisher struct {
	broker  string
	topics  model.Topics
	timeout time.Duration
	log     logger.Logger
}

// NewPublisher returns a Publisher for broker and topics. timeout bounds
// every broker round trip; zero means 5s.
func NewPublisher(broker string, topics model.Topics, timeout time.Duration) *Publisher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Publisher{broker: broker, topics: topics, timeout: timeout, log: logger.New("simulator")}
}

// Publish retains v on the identity topics. Empty fields are skipped so a
// router that only knows the vehicle ID can be reproduced.
func (p *Publisher) Publish(ctx context.Context, v Vehicle) error {
	msgs := map[string]string{}
	if v.VIN != "" {
		msgs[p.topics.VIN] = v.VIN
	}
	if v.VehicleID != "" {
		msgs[p.topics.VehicleID] = v.VehicleID
	}
	return p.send(ctx, msgs)
}

// Clear removes the retained identity, as when a vehicle leaves the dock.
func (p *Publisher) Clear(ctx context.Context) error {
	return p.send(ctx, map[string]string{p.topics.VIN: "", p.topics.VehicleID: ""})
}

func (p *Publisher) send(ctx context.Context, msgs map[string]string) error {
	opts := paho.NewClientOptions().
		AddBroker(p.broker).
		SetClientID("docksim-" + uuid.NewString()).
		SetCleanSession(true).
		SetAutoReconnect(false).
		SetConnectTimeout(p.timeout)
	cli := newMQTTClient(opts)
	if err := p.await(ctx, cli.Connect()); err != nil {
		cli.Disconnect(0)
		return fmt.Errorf("connect %s: %w", p.broker, err)
	}
	defer cli.Disconnect(250)

	for _, topic := range []string{p.topics.VIN, p.topics.VehicleID} {
		payload, ok := msgs[topic]
		if !ok {
			continue
		}
		if err := p.await(ctx, cli.Publish(topic, publishQoS, true, payload)); err != nil {
			return fmt.Errorf("publish %s: %w", topic, err)
		}
		p.log.Debugf("retained %s=%q", topic, payload)
	}
	return nil
}

func (p *Publisher) await(ctx context.Context, token paho.Token) error {
	timer := time.NewTimer(p.timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
		return token.Error()
	case <-timer.C:
		return fmt.Errorf("no broker response after %s", p.timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}
