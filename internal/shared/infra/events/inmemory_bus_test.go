package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryEventBus_DeliversJSONToEverySubscriber(t *testing.T) {
	bus := NewInMemoryEventBus("content")
	a := bus.Subscribe(1)
	b := bus.Subscribe(1)

	require.NoError(t, bus.Publish(context.Background(), map[string]int{"id": 3}))

	for _, ch := range []<-chan interface{}{a, b} {
		msg := <-ch
		payload, ok := msg.([]byte)
		require.True(t, ok)
		var got map[string]int
		require.NoError(t, json.Unmarshal(payload, &got))
		assert.Equal(t, 3, got["id"])
	}
}

func TestInMemoryEventBus_SlowSubscriberDropsEvents(t *testing.T) {
	bus := NewInMemoryEventBus("content")
	ch := bus.Subscribe(1)

	require.NoError(t, bus.Publish(context.Background(), 1))
	require.NoError(t, bus.Publish(context.Background(), 2))

	assert.Len(t, ch, 1)
	assert.Equal(t, "content", bus.Topic())
}

func TestInMemoryEventBus_PublishWithoutSubscribers(t *testing.T) {
	assert.NoError(t, NewInMemoryEventBus("content").Publish(context.Background(), "x"))
}
