// Package util provides helpers shared by the container backed integration
// tests.
//
// StartMosquitto launches a disposable Mosquitto broker in a Docker container
// and returns its broker URL and a cleanup function. Subscribe collects the
// messages published on a topic filter.
package util

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// MosquittoReadyTimeout bounds the wait for the broker to accept clients.
	MosquittoReadyTimeout = 10 * time.Second

	pollInterval = 50 * time.Millisecond
)

// StartMosquitto launches a temporary Mosquitto broker inside a Docker
// container and returns its broker URL along with a cleanup function.
func StartMosquitto(ctx context.Context) (string, func(), error) {
	conf := `listener 1883
allow_anonymous true
persistence false
log_dest stdout
log_type error
log_type warning
log_type notice
log_type information
connection_messages true
log_timestamp true
`

	dir, err := os.MkdirTemp("", "mosq")
	if err != nil {
		return "", nil, err
	}
	path := filepath.Join(dir, "mosquitto.conf")
	if err := os.WriteFile(path, []byte(conf), 0644); err != nil {
		_ = os.RemoveAll(dir)
		return "", nil, err
	}

	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2.0",
		ExposedPorts: []string{"1883/tcp"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
		Files: []tc.ContainerFile{
			{
				HostFilePath:      path,
				ContainerFilePath: "/mosquitto/config/mosquitto.conf",
				FileMode:          0644,
			},
		},
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		_ = os.RemoveAll(dir)
		return "", nil, err
	}

	cleanup := func() {
		_ = cont.Terminate(context.Background())
		_ = os.RemoveAll(dir)
	}

	host, err := cont.Host(ctx)
	if err != nil {
		cleanup()
		return "", nil, err
	}
	port, err := cont.MappedPort(ctx, "1883")
	if err != nil {
		cleanup()
		return "", nil, err
	}
	broker := fmt.Sprintf("tcp://%s:%s", host, port.Port())

	waitCtx, cancel := context.WithTimeout(ctx, MosquittoReadyTimeout)
	defer cancel()
	if err := waitForMQTTReady(waitCtx, broker); err != nil {
		cleanup()
		return "", nil, err
	}

	return broker, cleanup, nil
}

func waitForMQTTReady(ctx context.Context, broker string) error {
	opts := paho.NewClientOptions().AddBroker(broker).SetClientID("lrinject-probe")
	for {
		cli := paho.NewClient(opts)
		token := cli.Connect()
		token.Wait()
		if token.Error() == nil {
			cli.Disconnect(100)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// Collector gathers MQTT messages received on a subscription.
type Collector struct {
	mu       sync.Mutex
	cli      paho.Client
	messages map[string][][]byte
}

// Subscribe connects to broker and records every message matching filter.
func Subscribe(broker, filter string) (*Collector, error) {
	c := &Collector{messages: make(map[string][][]byte)}
	opts := paho.NewClientOptions().AddBroker(broker).SetClientID(fmt.Sprintf("collector-%d", time.Now().UnixNano()))
	cli := paho.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	token := cli.Subscribe(filter, 1, func(_ paho.Client, msg paho.Message) {
		c.mu.Lock()
		c.messages[msg.Topic()] = append(c.messages[msg.Topic()], msg.Payload())
		c.mu.Unlock()
	})
	if token.Wait() && token.Error() != nil {
		cli.Disconnect(100)
		return nil, token.Error()
	}
	c.cli = cli
	return c, nil
}

// WaitFor blocks until n messages arrived in total or ctx is done.
func (c *Collector) WaitFor(ctx context.Context, n int) (map[string][][]byte, error) {
	for {
		c.mu.Lock()
		total := 0
		for _, m := range c.messages {
			total += len(m)
		}
		if total >= n {
			out := make(map[string][][]byte, len(c.messages))
			for k, v := range c.messages {
				out[k] = append([][]byte(nil), v...)
			}
			c.mu.Unlock()
			return out, nil
		}
		c.mu.Unlock()
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("received %d of %d messages: %w", total, n, ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}

// Close disconnects the subscriber.
func (c *Collector) Close() { c.cli.Disconnect(100) }
