package mqtt

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestPublisherIntegration publishes a run summary through a real Mosquitto broker.
func TestPublisherIntegration(t *testing.T) {
	if os.Getenv("DOCKER_AVAILABLE") != "true" && os.Getenv("DOCKER_AVAILABLE") != "1" {
		t.Skip("docker not available")
	}
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "eclipse-mosquitto:2.0",
			ExposedPorts: []string{"1883/tcp"},
			Cmd:          []string{"mosquitto", "-c", "/mosquitto-no-auth.conf"},
			WaitingFor:   wait.ForListeningPort("1883/tcp"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start container: %v", err)
	}
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %v", err)
		}
	}()

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "1883")
	if err != nil {
		t.Fatalf("mapped port: %v", err)
	}
	broker := fmt.Sprintf("tcp://%s:%s", host, port.Port())

	received := make(chan []byte, 1)
	sub := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("sub"))
	if tok := sub.Connect(); tok.WaitTimeout(5*time.Second) && tok.Error() != nil {
		t.Fatalf("subscriber connect: %v", tok.Error())
	}
	defer sub.Disconnect(100)
	if tok := sub.Subscribe("virtos/runs/#", 1, func(_ paho.Client, m paho.Message) {
		received <- m.Payload()
	}); tok.WaitTimeout(5*time.Second) && tok.Error() != nil {
		t.Fatalf("subscribe: %v", tok.Error())
	}

	pub, err := NewPahoPublisher(Config{Broker: broker, ClientID: "pub", QoS: 1})
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	defer pub.Close()

	topic := Config{TopicPrefix: "virtos"}.Topic("runs", "virtos")
	if err := pub.Publish(ctx, topic, []byte(`{"run_id":"r1"}`)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case msg := <-received:
		if string(msg) != `{"run_id":"r1"}` {
			t.Fatalf("unexpected payload %s", msg)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no message received")
	}
}
