package notify

import (
	"context"
	"sync"
	"sync/atomic"
)

// defaultBufferSize is the per-subscriber backlog. A CLI command reads one
// notification per mutation, so a small buffer is plenty.
const defaultBufferSize = 64

// Broker delivers registry changes to every subscriber with a free buffer
// slot. One broker can be shared by many registries; Publish reports how
// many deliveries it skipped so each publisher can account for its own.
type Broker[T any] struct {
	mu         sync.RWMutex
	subs       map[chan Event[T]]struct{}
	done       chan struct{}
	bufferSize int
	dropped    atomic.Int64
}

// NewBroker returns a broker with 64-slot subscriber buffers.
func NewBroker[T any]() *Broker[T] {
	return NewBrokerWithBuffer[T](defaultBufferSize)
}

// NewBrokerWithBuffer returns a broker whose subscribers buffer size events.
func NewBrokerWithBuffer[T any](size int) *Broker[T] {
	return &Broker[T]{
		subs:       make(map[chan Event[T]]struct{}),
		done:       make(chan struct{}),
		bufferSize: size,
	}
}

func (b *Broker[T]) closed() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}

// Subscribe registers a subscriber for changes published from now on.
// The channel closes when ctx ends or the broker closes; subscribing to a
// closed broker yields an already closed channel.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed() {
		ch := make(chan Event[T])
		close(ch)
		return ch
	}

	sub := make(chan Event[T], b.bufferSize)
	b.subs[sub] = struct{}{}
	go b.unsubscribeOnDone(ctx, sub)
	return sub
}

// unsubscribeOnDone removes sub once ctx ends. Close owns the channel if
// the broker shuts down first.
func (b *Broker[T]) unsubscribeOnDone(ctx context.Context, sub chan Event[T]) {
	select {
	case <-ctx.Done():
	case <-b.done:
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed() {
		return
	}
	delete(b.subs, sub)
	close(sub)
}

// Publish offers the change to every subscriber without blocking and
// returns the number of subscribers that missed it.
func (b *Broker[T]) Publish(eventType EventType, payload T) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed() {
		return 0
	}

	event := Event[T]{Type: eventType, Payload: payload}
	missed := 0
	for sub := range b.subs {
		select {
		case sub <- event:
		default:
			missed++
		}
	}
	b.dropped.Add(int64(missed))
	return missed
}

// Close closes every subscriber channel. Later calls are no-ops.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed() {
		return
	}
	close(b.done)
	for sub := range b.subs {
		close(sub)
	}
	b.subs = nil
}

// SubscriberCount returns the number of live subscriptions.
func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped returns the missed deliveries across all publishers.
func (b *Broker[T]) Dropped() int64 {
	return b.dropped.Load()
}
