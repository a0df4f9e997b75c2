package mqtt

import "context"

// Publisher delivers payloads to an MQTT broker.
type Publisher interface {
	// Publish sends payload on topic. Implementations retry transient
	// failures until ctx is done.
	Publish(ctx context.Context, topic string, payload []byte) error
	// Close disconnects from the broker.
	Close()
}
