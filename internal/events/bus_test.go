package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversToSubscribers(t *testing.T) {
	bus := NewEventBus(16)

	var mu sync.Mutex
	var got []Event
	bus.Subscribe(EventTypeSessionStarted, func(e Event) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
	})

	bus.Publish(Event{Type: EventTypeSessionStarted, Source: "test"})
	bus.Stop()

	require.Len(t, got, 1)
	assert.Equal(t, "test", got[0].Source)
	assert.False(t, got[0].Timestamp.IsZero(), "publish stamps missing timestamps")
}

func TestBusFiltersByEventType(t *testing.T) {
	bus := NewEventBus(16)

	count := 0
	bus.Subscribe(EventTypeCompletionDetected, func(Event) { count++ })

	bus.Publish(Event{Type: EventTypeSessionStarted})
	bus.Publish(Event{Type: EventTypeCompletionDetected})
	bus.Publish(Event{Type: EventTypeSessionFinished})
	bus.Stop()

	assert.Equal(t, 1, count)
}

func TestBusDispatchesInPublishOrder(t *testing.T) {
	bus := NewEventBus(64)

	var order []int
	bus.Subscribe(EventTypeArtifactSent, func(e Event) {
		order = append(order, e.Data["n"].(int))
	})

	for i := 0; i < 20; i++ {
		bus.Publish(Event{Type: EventTypeArtifactSent, Data: map[string]interface{}{"n": i}})
	}
	bus.Stop()

	require.Len(t, order, 20)
	for i, n := range order {
		assert.Equal(t, i, n)
	}
}

func TestBusUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewEventBus(16)

	count := 0
	id := bus.Subscribe(EventTypeError, func(Event) { count++ })
	bus.Unsubscribe(id)

	bus.Publish(Event{Type: EventTypeError})
	bus.Stop()

	assert.Zero(t, count)
}

func TestBusSurvivesPanickingHandler(t *testing.T) {
	bus := NewEventBus(16)

	bus.Subscribe(EventTypeSessionFinished, func(Event) { panic("bad subscriber") })
	count := 0
	bus.Subscribe(EventTypeSessionFinished, func(Event) { count++ })

	bus.Publish(Event{Type: EventTypeSessionFinished})
	bus.Publish(Event{Type: EventTypeSessionFinished})
	bus.Stop()

	assert.Equal(t, 2, count, "later subscribers still run after a panic")
}
