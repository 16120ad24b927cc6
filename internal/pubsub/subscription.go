package pubsub

import (
	"context"
	"errors"
	"sync"
)

// Subscription is a lazy, non-restartable sequence of events. Next must be
// called from a single goroutine; Close may be called from any.
type Subscription struct {
	topic string
	queue chan Event
	bus   *Bus

	// err is written under bus.mu before queue is closed.
	err       error
	closeOnce sync.Once
}

// Next blocks until an event arrives, ctx is done or the subscription ends.
// Events already queued are still delivered after Close.
func (s *Subscription) Next(ctx context.Context) (Event, error) {
	select {
	case ev, ok := <-s.queue:
		if !ok {
			return Event{}, s.Err()
		}
		return ev, nil
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

// Err is nil while the subscription is live.
func (s *Subscription) Err() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	return s.err
}

// Overflowed reports whether the bus dropped this subscriber.
func (s *Subscription) Overflowed() bool {
	return errors.Is(s.Err(), ErrSubscriberOverflow)
}

func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.bus.unsubscribe(s)
	})
}
