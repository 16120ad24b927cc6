package pubsub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const topic = "post created"

func next(t *testing.T, sub *Subscription) Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ev, err := sub.Next(ctx)
	require.NoError(t, err)
	return ev
}

func TestBus_DeliversToEverySubscriber(t *testing.T) {
	bus := New(8, nil)
	a := bus.Subscribe(topic)
	b := bus.Subscribe(topic)
	defer a.Close()
	defer b.Close()

	delivered := bus.Publish(topic, "p1")

	assert.Equal(t, 2, delivered)
	assert.Equal(t, "p1", next(t, a).Payload)
	assert.Equal(t, "p1", next(t, b).Payload)
}

func TestBus_LateSubscriberMissesEarlierEvents(t *testing.T) {
	bus := New(8, nil)
	early := bus.Subscribe(topic)
	defer early.Close()

	bus.Publish(topic, "before")
	late := bus.Subscribe(topic)
	defer late.Close()
	bus.Publish(topic, "after")

	assert.Equal(t, "before", next(t, early).Payload)
	assert.Equal(t, "after", next(t, early).Payload)
	assert.Equal(t, "after", next(t, late).Payload)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := late.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBus_TopicsAreIsolated(t *testing.T) {
	bus := New(8, nil)
	sub := bus.Subscribe("other")
	defer sub.Close()

	assert.Equal(t, 0, bus.Publish(topic, "x"))
}

func TestBus_AllSubscribersSeeSameOrder(t *testing.T) {
	const publishers, perPublisher = 4, 25
	bus := New(publishers*perPublisher, nil)
	a := bus.Subscribe(topic)
	b := bus.Subscribe(topic)
	defer a.Close()
	defer b.Close()

	var wg sync.WaitGroup
	for p := 0; p < publishers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perPublisher; i++ {
				bus.Publish(topic, p*1000+i)
			}
		}(p)
	}
	wg.Wait()

	for i := 0; i < publishers*perPublisher; i++ {
		require.Equal(t, next(t, a).Payload, next(t, b).Payload, "event %d", i)
	}
}

func TestBus_OverflowDisconnectsSlowSubscriber(t *testing.T) {
	bus := New(2, nil)
	slow := bus.Subscribe(topic)
	fast := bus.Subscribe(topic)
	defer fast.Close()

	bus.Publish(topic, 1)
	bus.Publish(topic, 2)
	assert.Equal(t, 1, next(t, fast).Payload)
	assert.Equal(t, 2, next(t, fast).Payload)

	delivered := bus.Publish(topic, 3)
	assert.Equal(t, 1, delivered, "only the fast subscriber receives the third event")
	assert.Equal(t, 1, bus.SubscriberCount(topic))

	assert.Equal(t, 1, next(t, slow).Payload)
	assert.Equal(t, 2, next(t, slow).Payload)
	_, err := slow.Next(context.Background())
	assert.True(t, errors.Is(err, ErrSubscriberOverflow))
	assert.True(t, slow.Overflowed())

	assert.Equal(t, 3, next(t, fast).Payload)
}

func TestSubscription_CloseUnregisters(t *testing.T) {
	bus := New(8, nil)
	sub := bus.Subscribe(topic)
	require.Equal(t, 1, bus.SubscriberCount(topic))

	sub.Close()
	sub.Close()

	assert.Equal(t, 0, bus.SubscriberCount(topic))
	assert.Equal(t, 0, bus.Publish(topic, "x"))

	_, err := sub.Next(context.Background())
	assert.ErrorIs(t, err, ErrSubscriptionClosed)
	assert.False(t, sub.Overflowed())
}

func TestSubscription_NextHonoursContext(t *testing.T) {
	bus := New(8, nil)
	sub := bus.Subscribe(topic)
	defer sub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := sub.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, sub.Err())
}

func TestBus_ConcurrentSubscribePublishClose(t *testing.T) {
	bus := New(4, nil)
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sub := bus.Subscribe(topic)
			time.Sleep(time.Millisecond)
			sub.Close()
		}()
		go func(i int) {
			defer wg.Done()
			bus.Publish(topic, i)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, bus.SubscriberCount(topic))
}
