package mqtt

import (
	"context"
	"fmt"
	"sync"

	coremqtt "github.com/kilianp07/virtos/core/mqtt"
)

// Publisher mirrors the core mqtt.Publisher interface.
type Publisher = coremqtt.Publisher

// Message is a payload captured by MockPublisher.
type Message struct {
	Topic   string
	Payload []byte
}

// MockPublisher records published messages in memory.
type MockPublisher struct {
	mu         sync.Mutex
	Messages   []Message
	FailTopics map[string]bool
	Closed     bool
}

// NewMockPublisher creates an empty MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{FailTopics: make(map[string]bool)}
}

// Publish records the message or fails when the topic is listed in FailTopics.
func (m *MockPublisher) Publish(_ context.Context, topic string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Closed {
		return coremqtt.ErrNotConnected
	}
	if m.FailTopics[topic] {
		return fmt.Errorf("publish to %s failed", topic)
	}
	m.Messages = append(m.Messages, Message{Topic: topic, Payload: append([]byte(nil), payload...)})
	return nil
}

// Close marks the publisher closed.
func (m *MockPublisher) Close() {
	m.mu.Lock()
	m.Closed = true
	m.mu.Unlock()
}

// Published returns a copy of the recorded messages.
func (m *MockPublisher) Published() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.Messages...)
}
