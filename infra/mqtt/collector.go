package mqtt

import (
	"context"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/dockid/core/model"
)

// collector receives identity messages on the paho delivery goroutine. The
// fetch goroutine only reads its values through snapshot, after which late
// deliveries are dropped.
type collector struct {
	topics model.Topics

	mu        sync.Mutex
	vin       string
	vehicleID string
	messages  int
	closed    bool

	done chan struct{}
	once sync.Once
}

type snapshot struct {
	vin       string
	vehicleID string
	messages  int
}

func newCollector(topics model.Topics) *collector {
	return &collector{topics: topics, done: make(chan struct{})}
}

func (c *collector) handle(_ paho.Client, m paho.Message) {
	payload := trimPayload(string(m.Payload()))
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.messages++
	switch m.Topic() {
	case c.topics.VIN:
		c.vin = payload
	case c.topics.VehicleID:
		c.vehicleID = payload
	}
	// The vehicle ID alone completes the run; VIN is best effort.
	if c.vehicleID != "" {
		c.once.Do(func() { close(c.done) })
	}
}

// trimPayload repairs invalid UTF-8 and strips leading and trailing code
// points up to U+0020, control characters included. Other Unicode spaces
// such as U+00A0 are kept.
func trimPayload(p string) string {
	return strings.TrimFunc(strings.ToValidUTF8(p, "\uFFFD"), func(r rune) bool { return r <= ' ' })
}

// wait blocks until completion is signalled, d elapses or ctx is done. It
// reports whether the signal arrived.
func (c *collector) wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-c.done:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}

// snapshot stops accepting messages and returns what was collected.
func (c *collector) snapshot() snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return snapshot{vin: c.vin, vehicleID: c.vehicleID, messages: c.messages}
}
