// Package pubsub fans events out to bounded subscriber buffers. Publishing never blocks:
// when a buffer is full its oldest event is dropped to make room and the drop is counted.
package pubsub

import (
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultBuffer is the per-subscriber buffer when none is given
const DefaultBuffer = 256

// Topic is a typed broadcast channel
type Topic[T any] struct {
	name    string
	buffer  int
	counter prometheus.Counter

	// mu serializes publishers with each other and with subscribe/close, so a slot freed by a
	// drop cannot be taken by another publisher before this one sends
	mu     sync.Mutex
	subs   map[uint64]*Subscription[T]
	nextID uint64

	dropped   atomic.Uint64
	published atomic.Uint64
}

// NewTopic builds a topic; dropped may be nil
func NewTopic[T any](name string, buffer int, dropped prometheus.Counter) *Topic[T] {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Topic[T]{name: name, buffer: buffer, counter: dropped, subs: map[uint64]*Subscription[T]{}}
}

// Name of the topic
func (t *Topic[T]) Name() string { return t.name }

// Dropped is the total number of events dropped across subscribers
func (t *Topic[T]) Dropped() uint64 { return t.dropped.Load() }

// Published is the number of Publish calls
func (t *Topic[T]) Published() uint64 { return t.published.Load() }

// Subscribers is the current subscriber count
func (t *Topic[T]) Subscribers() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

// Subscribe registers a new subscriber with the topic's buffer size
func (t *Topic[T]) Subscribe() *Subscription[T] {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	s := &Subscription[T]{id: t.nextID, topic: t, ch: make(chan T, t.buffer)}
	t.subs[s.id] = s
	return s
}

// Publish delivers v to every subscriber without blocking
func (t *Topic[T]) Publish(v T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.published.Add(1)
	for _, s := range t.subs {
		select {
		case s.ch <- v:
			continue
		default:
		}
		// full: evict the oldest undelivered event, unless the reader just freed a slot
		select {
		case <-s.ch:
			t.drop(s)
		default:
		}
		select {
		case s.ch <- v:
		default:
			t.drop(s)
		}
	}
}

func (t *Topic[T]) drop(s *Subscription[T]) {
	s.dropped.Add(1)
	t.dropped.Add(1)
	if t.counter != nil {
		t.counter.Inc()
	}
}

// Close removes every subscriber and closes their channels
func (t *Topic[T]) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, s := range t.subs {
		delete(t.subs, id)
		close(s.ch)
	}
}

// Subscription is one reader of a topic
type Subscription[T any] struct {
	id      uint64
	topic   *Topic[T]
	ch      chan T
	dropped atomic.Uint64
}

// C is the delivery channel; it is closed by Unsubscribe or Topic.Close
func (s *Subscription[T]) C() <-chan T { return s.ch }

// Dropped counts events this subscriber lost to overflow
func (s *Subscription[T]) Dropped() uint64 { return s.dropped.Load() }

// Unsubscribe detaches and closes the channel. Safe to call more than once
func (s *Subscription[T]) Unsubscribe() {
	t := s.topic
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.subs[s.id]; !ok {
		return
	}
	delete(t.subs, s.id)
	close(s.ch)
}
