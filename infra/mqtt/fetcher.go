package mqtt

import (
	"context"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/dockid/core/model"
	coremqtt "github.com/kilianp07/dockid/core/mqtt"
	"github.com/kilianp07/dockid/core/session"
	"github.com/kilianp07/dockid/infra/logger"
)

// subackFailure is the MQTT 3.1.1 SUBACK return code for a refused subscription.
const subackFailure = 0x80

type pahoClient interface {
	Connect() paho.Token
	Disconnect(quiesce uint)
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// FetchStats describes the last fetch attempt.
type FetchStats struct {
	ClientID string
	Messages int
	Wait     time.Duration
	Outcome  session.State
}

// Fetcher performs the one-shot subscribe protocol: connect, subscribe to
// the identity topics, wait for the retained values and disconnect.
type Fetcher struct {
	cfg            Config
	topics         model.Topics
	wait           time.Duration
	connectTimeout time.Duration
	log            logger.Logger

	mu   sync.Mutex
	last FetchStats
}

// NewFetcher validates cfg and returns a Fetcher.
func NewFetcher(cfg Config) (*Fetcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Fetcher{
		cfg:            cfg,
		topics:         cfg.Topics(),
		wait:           cfg.WaitTimeout(),
		connectTimeout: cfg.ConnectTimeout(),
		log:            logger.New("mqtt_fetcher"),
	}, nil
}

// NewClientOptions builds the client options for a single clean, non
// reconnecting, anonymous session.
func NewClientOptions(broker, clientID string, connectTimeout time.Duration) *paho.ClientOptions {
	return paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetCleanSession(true).
		SetAutoReconnect(false).
		SetConnectRetry(false).
		SetConnectTimeout(connectTimeout)
}

// Fetch fills res.VIN and res.VehicleID from the broker and decides
// res.Status as OK or TIMEOUT. Connect and subscribe failures are returned as
// *coremqtt.ConnectionError or *coremqtt.ProtocolError and leave the status
// untouched. The connection is always torn down before returning.
func (f *Fetcher) Fetch(ctx context.Context, res *model.Result) error {
	clientID := f.cfg.ClientIDPrefix + "-" + uuid.NewString()
	stats := FetchStats{ClientID: clientID}
	// Session moves must happen even after ctx is cancelled.
	sctx := context.WithoutCancel(ctx)
	sess := session.New(func(from, to session.State) {
		f.log.Debugf("session %s: %s -> %s", clientID, from, to)
	})
	defer func() {
		stats.Outcome = sess.Outcome()
		f.mu.Lock()
		f.last = stats
		f.mu.Unlock()
	}()

	opts := NewClientOptions(f.cfg.Broker, clientID, f.connectTimeout)
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		f.log.Warnf("connection lost: %v", err)
	}
	cli := newMQTTClient(opts)
	col := newCollector(f.topics)

	_ = sess.Fire(sctx, session.EventConnect)
	if err := f.connect(cli); err != nil {
		_ = sess.Fire(sctx, session.EventFail)
		f.teardown(sctx, cli, sess)
		return err
	}
	f.log.Infof("connected to %s as %s", f.cfg.Broker, clientID)

	for _, topic := range []string{f.topics.VIN, f.topics.VehicleID} {
		if err := f.subscribe(cli, topic, col.handle); err != nil {
			_ = sess.Fire(sctx, session.EventFail)
			f.teardown(sctx, cli, sess)
			return err
		}
	}
	_ = sess.Fire(sctx, session.EventSubscribe)

	start := time.Now()
	signalled := col.wait(ctx, f.wait)
	stats.Wait = time.Since(start)

	snap := col.snapshot()
	stats.Messages = snap.messages
	res.VIN = snap.vin
	res.VehicleID = snap.vehicleID

	status, event := model.StatusTimeout, session.EventTimeout
	if signalled && res.VehicleID != "" {
		status, event = model.StatusOK, session.EventComplete
	}
	_ = sess.Fire(sctx, event)
	if err := res.Finish(status, ""); err != nil {
		f.log.Errorf("finish result: %v", err)
	}
	f.teardown(sctx, cli, sess)
	return nil
}

func (f *Fetcher) connect(cli pahoClient) error {
	token := cli.Connect()
	if !token.WaitTimeout(f.connectTimeout) {
		return &coremqtt.ConnectionError{Broker: f.cfg.Broker, Err: coremqtt.ErrConnectTimeout}
	}
	if err := token.Error(); err != nil {
		return &coremqtt.ConnectionError{Broker: f.cfg.Broker, Err: err}
	}
	return nil
}

func (f *Fetcher) subscribe(cli pahoClient, topic string, cb paho.MessageHandler) error {
	token := cli.Subscribe(topic, 0, cb)
	if !token.WaitTimeout(f.connectTimeout) {
		return &coremqtt.ProtocolError{Topic: topic, Err: coremqtt.ErrSubscribeTimeout}
	}
	if err := token.Error(); err != nil {
		return &coremqtt.ProtocolError{Topic: topic, Err: err}
	}
	if st, ok := token.(*paho.SubscribeToken); ok {
		if code, found := st.Result()[topic]; found && code == subackFailure {
			return &coremqtt.ProtocolError{Topic: topic, Err: fmt.Errorf("%w (code 0x%02x)", coremqtt.ErrSubscribeRejected, code)}
		}
	}
	return nil
}

// teardown disconnects and closes the session. Disconnect is attempted even
// when CONNECT failed so a pending attempt is aborted. Nothing here can fail
// the run.
func (f *Fetcher) teardown(ctx context.Context, cli pahoClient, sess *session.Session) {
	cli.Disconnect(250)
	if err := sess.Fire(ctx, session.EventClose); err != nil {
		f.log.Debugf("close session: %v", err)
	}
}

// LastStats returns statistics of the most recent Fetch.
func (f *Fetcher) LastStats() FetchStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

// Topics returns the subscribed identity topics.
func (f *Fetcher) Topics() model.Topics { return f.topics }

// Broker returns the broker address.
func (f *Fetcher) Broker() string { return f.cfg.Broker }
