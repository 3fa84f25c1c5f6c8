// Package bus carries partner registration events between the HTTP API
// and the downstream consumers with at-least-once delivery.
package bus

import "context"

// Message is one event on a topic. Key selects the partition so that
// events sharing a key are delivered in publish order.
type Message struct {
	Topic string
	Key   []byte
	Value []byte
}

// Publisher sends messages to the bus.
type Publisher interface {
	Publish(ctx context.Context, msgs ...Message) error
	Close() error
}

// Handler processes one delivered message. Returning an error leaves the
// message uncommitted so it is redelivered; handlers must tolerate
// duplicates.
type Handler func(ctx context.Context, msg Message) error

// Subscriber consumes a set of topics until the context is cancelled.
type Subscriber interface {
	Subscribe(ctx context.Context, topics []string, handler Handler) error
	Close() error
}
