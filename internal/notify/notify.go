// Package notify fans queue-changed signals out to live subscribers. A signal carries only the
// queue ID; subscribers re-read the queue themselves.
package notify

import (
	"context"
	"sync"
)

// Notifier publishes and delivers queue-changed signals.
type Notifier interface {
	// Publish signals that the queue changed.
	Publish(ctx context.Context, queueID string) error
	// Subscribe returns a channel that receives a value after each change to the queue, and a
	// function that releases the subscription. Signals are coalesced: a slow reader sees at
	// least one value after the latest change, not one per change.
	Subscribe(ctx context.Context, queueID string) (<-chan struct{}, func())
	Close() error
}

// Broker is an in-process Notifier, used when the server runs as a single instance.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan struct{}]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[chan struct{}]struct{})}
}

func (b *Broker) Publish(_ context.Context, queueID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs[queueID] {
		signal(ch)
	}
	return nil
}

func (b *Broker) Subscribe(_ context.Context, queueID string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	b.mu.Lock()
	if b.subs[queueID] == nil {
		b.subs[queueID] = make(map[chan struct{}]struct{})
	}
	b.subs[queueID][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[queueID], ch)
			if len(b.subs[queueID]) == 0 {
				delete(b.subs, queueID)
			}
		})
	}
}

func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = make(map[string]map[chan struct{}]struct{})
	return nil
}

// signal does a non-blocking send; a pending value already covers this change.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
