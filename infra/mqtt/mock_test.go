package mqtt

import (
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// mockClient implements pahoClient for tests. Retained messages are delivered
// synchronously from Subscribe, the way a broker sends them with the SUBACK.
type mockClient struct {
	opts       *paho.ClientOptions
	connectErr error
	subErrs    map[string]error
	retained   map[string][]string

	mu           sync.Mutex
	subscribed   []string
	qos          []byte
	handlers     map[string]paho.MessageHandler
	disconnected bool
}

func (m *mockClient) Connect() paho.Token { return &dummyToken{err: m.connectErr} }

func (m *mockClient) Disconnect(uint) {
	m.mu.Lock()
	m.disconnected = true
	m.mu.Unlock()
}

func (m *mockClient) Subscribe(topic string, qos byte, cb paho.MessageHandler) paho.Token {
	m.mu.Lock()
	m.subscribed = append(m.subscribed, topic)
	m.qos = append(m.qos, qos)
	if m.handlers == nil {
		m.handlers = make(map[string]paho.MessageHandler)
	}
	m.handlers[topic] = cb
	m.mu.Unlock()
	if err := m.subErrs[topic]; err != nil {
		return &dummyToken{err: err}
	}
	for _, p := range m.retained[topic] {
		cb(nil, mockMessage{topic: topic, p: []byte(p)})
	}
	return &dummyToken{}
}

// deliver pushes a message through the handler registered for topic.
func (m *mockClient) deliver(topic, payload string) {
	m.mu.Lock()
	cb := m.handlers[topic]
	m.mu.Unlock()
	if cb != nil {
		cb(nil, mockMessage{topic: topic, p: []byte(payload)})
	}
}

func (m *mockClient) wasDisconnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disconnected
}

type dummyToken struct {
	err     error
	pending bool
}

func (d dummyToken) Wait() bool                     { return !d.pending }
func (d dummyToken) WaitTimeout(time.Duration) bool { return !d.pending }
func (d dummyToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if !d.pending {
		close(ch)
	}
	return ch
}
func (d dummyToken) Error() error { return d.err }

type mockMessage struct {
	topic string
	p     []byte
}

func (m mockMessage) Duplicate() bool   { return false }
func (m mockMessage) Qos() byte         { return 0 }
func (m mockMessage) Retained() bool    { return true }
func (m mockMessage) Topic() string     { return m.topic }
func (m mockMessage) MessageID() uint16 { return 0 }
func (m mockMessage) Payload() []byte   { return m.p }
func (m mockMessage) Ack()              {}

// pendingClient never completes its tokens.
type pendingClient struct{ mockClient }

func (p *pendingClient) Connect() paho.Token { return &dummyToken{pending: true} }
