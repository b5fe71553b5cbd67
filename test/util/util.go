// Package util provides the disposable broker used by the integration tests.
package util

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// MosquittoReadyTimeout bounds the wait for the broker to accept clients.
const MosquittoReadyTimeout = 5 * time.Second

// mosquittoConf mirrors the dock router: anonymous, no persistence.
const mosquittoConf = `listener 1883
allow_anonymous true
persistence false
log_dest stdout
log_type error
log_type warning
`

// StartMosquitto runs eclipse-mosquitto in a container and returns the
// tcp:// broker URL once a client can connect. stop terminates the container.
func StartMosquitto(ctx context.Context) (broker string, stop func(), err error) {
	dir, err := os.MkdirTemp("", "dockid-mosquitto")
	if err != nil {
		return "", nil, err
	}
	confPath := filepath.Join(dir, "mosquitto.conf")
	if err := os.WriteFile(confPath, []byte(mosquittoConf), 0o644); err != nil {
		_ = os.RemoveAll(dir)
		return "", nil, err
	}

	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "eclipse-mosquitto:2.0",
			ExposedPorts: []string{"1883/tcp"},
			WaitingFor:   wait.ForListeningPort("1883/tcp"),
			Files: []tc.ContainerFile{{
				HostFilePath:      confPath,
				ContainerFilePath: "/mosquitto/config/mosquitto.conf",
				FileMode:          0o644,
			}},
		},
		Started: true,
	})
	if err != nil {
		_ = os.RemoveAll(dir)
		return "", nil, err
	}
	stop = func() {
		_ = cont.Terminate(context.Background())
		_ = os.RemoveAll(dir)
	}

	endpoint, err := cont.PortEndpoint(ctx, "1883/tcp", "tcp")
	if err != nil {
		stop()
		return "", nil, err
	}
	readyCtx, cancel := context.WithTimeout(ctx, MosquittoReadyTimeout)
	defer cancel()
	if err := awaitBroker(readyCtx, endpoint); err != nil {
		stop()
		return "", nil, fmt.Errorf("mosquitto not ready at %s: %w", endpoint, err)
	}
	return endpoint, stop, nil
}

// awaitBroker connects until the broker accepts a session or ctx ends.
func awaitBroker(ctx context.Context, broker string) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		opts := paho.NewClientOptions().
			AddBroker(broker).
			SetClientID("ready-" + uuid.NewString()).
			SetConnectTimeout(time.Second)
		cli := paho.NewClient(opts)
		token := cli.Connect()
		if token.WaitTimeout(time.Second) && token.Error() == nil {
			cli.Disconnect(0)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
