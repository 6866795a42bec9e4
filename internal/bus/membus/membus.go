// Package membus is an in-process Bus backed by FIFO queues keyed by
// name. It is the fake used by runtime unit tests and by cmd/kernel when
// KERNEL_BUS_BACKEND=memory is configured for local smoke-testing.
package membus

import (
	"context"
	"sync"

	"github.com/correlator-io/correlator/internal/bus"
)

// Bus is a mutex-guarded map of FIFO queues. Push appends to the tail;
// Pop removes and returns the head. The zero value is not usable — use
// New.
type Bus struct {
	mu     sync.Mutex
	queues map[string][]bus.Envelope
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{queues: make(map[string][]bus.Envelope)}
}

// Push appends env to the tail of queue. Never fails.
func (b *Bus) Push(_ context.Context, queue string, env bus.Envelope) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.queues[queue] = append(b.queues[queue], env)

	return nil
}

// Pop removes and returns the head of queue. ok is false when the queue
// is empty or has never been pushed to.
func (b *Bus) Pop(_ context.Context, queue string) (bus.Envelope, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	q := b.queues[queue]
	if len(q) == 0 {
		return bus.Envelope{}, false, nil
	}

	env := q[0]
	b.queues[queue] = q[1:]

	return env, true, nil
}

// Len reports the current depth of queue, for test assertions.
func (b *Bus) Len(queue string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.queues[queue])
}
