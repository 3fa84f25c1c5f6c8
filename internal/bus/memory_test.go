package bus

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esg-suite/dart-sync/internal/model"
)

func TestMemoryBus_PublishRecordsInOrder(t *testing.T) {
	b := NewMemory()
	ctx := context.Background()

	require.NoError(t, b.Publish(ctx,
		Message{Topic: "partner-company-events", Key: []byte("00126380"), Value: []byte(`{"action":"partner_company_registered"}`)},
		Message{Topic: "partner-company-restored", Key: []byte("uuid-1"), Value: []byte(`{"action":"partner_company_restored"}`)},
	))

	all := b.Published()
	require.Len(t, all, 2)
	assert.Equal(t, "partner-company-events", all[0].Topic)

	restored := b.PublishedTo("partner-company-restored")
	require.Len(t, restored, 1)
	assert.Equal(t, []byte("uuid-1"), restored[0].Key)
}

func TestMemoryBus_SubscribeFiltersTopics(t *testing.T) {
	b := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var seen []string
	done := make(chan struct{})

	go func() {
		_ = b.Subscribe(ctx, []string{"partner-company-events"}, func(_ context.Context, m Message) error {
			mu.Lock()
			seen = append(seen, string(m.Key))
			mu.Unlock()
			if len(seen) == 2 {
				close(done)
			}
			return nil
		})
	}()

	// Give the subscriber a beat to register.
	time.Sleep(10 * time.Millisecond)

	require.NoError(t, b.Publish(ctx, Message{Topic: "partner-company-events", Key: []byte("a")}))
	require.NoError(t, b.Publish(ctx, Message{Topic: "other-topic", Key: []byte("ignored")}))
	require.NoError(t, b.Publish(ctx, Message{Topic: "partner-company-events", Key: []byte("b")}))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive both messages")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestMemoryBus_PartnerEventRoundTrip(t *testing.T) {
	b := NewMemory()
	ctx := context.Background()

	hq := int64(7)
	ev := model.NewPartnerEvent(model.ActionPartnerRegistered, "00126380", "uuid-1", &hq)
	payload, err := json.Marshal(ev)
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, Message{
		Topic: "partner-company-events",
		Key:   []byte(ev.CorpCode),
		Value: payload,
	}))

	got := b.PublishedTo("partner-company-events")
	require.Len(t, got, 1)

	var decoded model.PartnerEvent
	require.NoError(t, json.Unmarshal(got[0].Value, &decoded))
	assert.Equal(t, model.ActionPartnerRegistered, decoded.Action)
	assert.Equal(t, "00126380", decoded.CorpCode)
	require.NotNil(t, decoded.HeadquartersID)
	assert.Equal(t, int64(7), *decoded.HeadquartersID)
	assert.NotEmpty(t, decoded.Timestamp)
}

func TestMemoryBus_StalledSubscriberDoesNotBlockPublished(t *testing.T) {
	b := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	release := make(chan struct{})
	go func() {
		_ = b.Subscribe(ctx, []string{"partner-company-events"}, func(_ context.Context, _ Message) error {
			<-release
			return nil
		})
	}()

	// Give the subscriber a beat to register.
	time.Sleep(10 * time.Millisecond)

	// Overrun the subscriber buffer so the publisher blocks mid-delivery.
	go func() {
		for i := 0; i < 400; i++ {
			_ = b.Publish(ctx, Message{Topic: "partner-company-events", Key: []byte("00126380")})
		}
	}()

	// Published must stay responsive while the publisher waits on the
	// stalled channel.
	require.Eventually(t, func() bool {
		return len(b.Published()) >= 100
	}, time.Second, 5*time.Millisecond)

	close(release)
}

func TestMemoryBus_PublishAfterCloseFails(t *testing.T) {
	b := NewMemory()
	require.NoError(t, b.Close())
	err := b.Publish(context.Background(), Message{Topic: "t"})
	require.Error(t, err)
}
