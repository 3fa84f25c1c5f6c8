package bus

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
)

// MemoryBus is an in-process Publisher/Subscriber used by corpsync runs
// without a broker and by tests. Delivery preserves publish order per
// topic; handler failures redeliver the message once the next publish
// happens, matching the at-least-once contract loosely enough for tests.
type MemoryBus struct {
	mu       sync.Mutex
	closed   bool
	messages []Message
	subs     []chan Message
}

func NewMemory() *MemoryBus {
	return &MemoryBus{}
}

func (b *MemoryBus) Publish(_ context.Context, msgs ...Message) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return eris.New("bus: memory bus closed")
	}
	b.messages = append(b.messages, msgs...)
	subs := make([]chan Message, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	// Deliver outside the lock so a stalled subscriber cannot block
	// Published or new subscriptions.
	for _, ch := range subs {
		for _, m := range msgs {
			ch <- m
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context, topics []string, handler Handler) error {
	want := make(map[string]bool, len(topics))
	for _, t := range topics {
		want[t] = true
	}

	ch := make(chan Message, 256)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m := <-ch:
			if !want[m.Topic] {
				continue
			}
			if err := handler(ctx, m); err != nil {
				// Redeliver once, then drop.
				if err := handler(ctx, m); err != nil {
					return eris.Wrapf(err, "bus: handler failed twice for %s", m.Topic)
				}
			}
		}
	}
}

// Published returns a copy of everything published so far, in order.
func (b *MemoryBus) Published() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Message, len(b.messages))
	copy(out, b.messages)
	return out
}

// PublishedTo filters Published by topic.
func (b *MemoryBus) PublishedTo(topic string) []Message {
	var out []Message
	for _, m := range b.Published() {
		if m.Topic == topic {
			out = append(out, m)
		}
	}
	return out
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}
