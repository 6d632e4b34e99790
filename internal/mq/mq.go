// Package mq provides a broker-agnostic publish/subscribe layer used
// for outbound notification delivery. RabbitMQ and Google Cloud
// Pub/Sub backends are selectable via configuration.
package mq

import "context"

// Message is a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a
// retry/nack; nil acknowledges the message.
type Handler func(ctx context.Context, msg Message) error

// Broker defines the operations the application needs from a message
// broker.
type Broker interface {
	// Publish sends a message to the named channel and returns the
	// broker-assigned message id.
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)

	// Subscribe consumes messages from the named channel until the
	// context is cancelled.
	Subscribe(ctx context.Context, channel string, handler Handler) error

	Close() error
}
