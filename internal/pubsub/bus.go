// Package pubsub is the in-process event bus behind GraphQL subscriptions.
package pubsub

import (
	"context"
	"sync"

	"github.com/AlibekovAA/postgraph/internal/common/constants"
	commonerrors "github.com/AlibekovAA/postgraph/internal/common/errors"
	"github.com/AlibekovAA/postgraph/internal/common/logger"
	"github.com/AlibekovAA/postgraph/internal/observability/metrics"
)

var (
	ErrSubscriberOverflow = commonerrors.ErrSubscriberOverflow
	ErrSubscriptionClosed = commonerrors.ErrSubscriptionClosed
)

type Event struct {
	Topic   string
	Payload any
}

type Publisher interface {
	Publish(topic string, payload any) int
}

type Subscriber interface {
	Subscribe(topic string) *Subscription
}

// Bus fans each published event out to every subscription registered on
// its topic at publish time. Publishes are serialized, so all subscribers
// observe one global order per topic.
type Bus struct {
	mu        sync.Mutex
	topics    map[string]map[*Subscription]struct{}
	queueSize int
	log       *logger.Logger
}

func New(queueSize int, log *logger.Logger) *Bus {
	if queueSize <= 0 {
		queueSize = constants.DefaultSubscriberQueueSize
	}
	return &Bus{
		topics:    make(map[string]map[*Subscription]struct{}),
		queueSize: queueSize,
		log:       log,
	}
}

// Publish never blocks. A subscriber whose queue is full is disconnected
// and reports ErrSubscriberOverflow. It returns the number of deliveries.
func (b *Bus) Publish(topic string, payload any) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	metrics.PubSubEventsPublished.WithLabelValues(topic).Inc()

	delivered := 0
	ev := Event{Topic: topic, Payload: payload}
	for sub := range b.topics[topic] {
		select {
		case sub.queue <- ev:
			delivered++
		default:
			b.evictLocked(sub)
		}
	}
	return delivered
}

func (b *Bus) Subscribe(topic string) *Subscription {
	sub := &Subscription{
		topic: topic,
		queue: make(chan Event, b.queueSize),
		bus:   b,
	}

	b.mu.Lock()
	subs, ok := b.topics[topic]
	if !ok {
		subs = make(map[*Subscription]struct{})
		b.topics[topic] = subs
	}
	subs[sub] = struct{}{}
	b.mu.Unlock()

	metrics.PubSubSubscribersActive.WithLabelValues(topic).Inc()
	return sub
}

// SubscriberCount reports live subscriptions on topic.
func (b *Bus) SubscriberCount(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.topics[topic])
}

func (b *Bus) evictLocked(sub *Subscription) {
	if !b.removeLocked(sub, ErrSubscriberOverflow) {
		return
	}
	metrics.PubSubSubscribersEvicted.WithLabelValues(sub.topic).Inc()
	if b.log != nil {
		b.log.WithFields(context.Background(), logger.Fields{
			"topic":  sub.topic,
			"action": "pubsub_subscriber_evicted",
		}).Warnf("subscriber queue full (%d), disconnecting", cap(sub.queue))
	}
}

func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked(sub, ErrSubscriptionClosed)
}

// removeLocked closes the queue exactly once; the first reason wins.
func (b *Bus) removeLocked(sub *Subscription, reason error) bool {
	subs := b.topics[sub.topic]
	if _, ok := subs[sub]; !ok {
		return false
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(b.topics, sub.topic)
	}
	sub.err = reason
	close(sub.queue)
	metrics.PubSubSubscribersActive.WithLabelValues(sub.topic).Dec()
	return true
}
