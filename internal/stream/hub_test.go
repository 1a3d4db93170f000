package stream

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edlund/sentinel/internal/model"
)

func TestHub_PublishDeliversToAllSubscribers(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	ch1, cancel1 := hub.Subscribe()
	ch2, cancel2 := hub.Subscribe()
	defer cancel1()
	defer cancel2()

	ev := model.SecurityEvent{Kind: model.EventLiveAttack, ID: "atk-1", Severity: model.SeverityHigh}
	require.NoError(t, hub.Publish(context.Background(), ev))

	got1 := <-ch1
	got2 := <-ch2
	assert.Equal(t, "atk-1", got1.ID)
	assert.Equal(t, "atk-1", got2.ID)
}

func TestHub_CancelRemovesSubscriber(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	_, cancel := hub.Subscribe()
	assert.Equal(t, 1, hub.SubscriberCount())

	cancel()
	assert.Equal(t, 0, hub.SubscriberCount())

	// Cancelling twice is safe.
	cancel()
	assert.Equal(t, 0, hub.SubscriberCount())
}

func TestHub_DropsSlowSubscriber(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	ch, cancel := hub.Subscribe()
	defer cancel()

	// Fill the buffer plus one; the overflow publish evicts the subscriber.
	for i := 0; i <= subscriberBuffer; i++ {
		require.NoError(t, hub.Publish(context.Background(), model.SecurityEvent{ID: "atk-x"}))
	}
	assert.Equal(t, 0, hub.SubscriberCount())

	// The channel was closed after draining its buffered events.
	n := 0
	for range ch {
		n++
	}
	assert.Equal(t, subscriberBuffer, n)
}

func TestHub_PublishWithNoSubscribers(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	require.NoError(t, hub.Publish(context.Background(), model.SecurityEvent{ID: "thr-1"}))
}
