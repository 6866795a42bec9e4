// Package kafkabus is a bus.Bus backed by Kafka topics, one topic per
// queue name. Pop is implemented as a non-blocking single-message
// consume with a short per-call read deadline, so it honors the
// "pop returns promptly when empty" contract the runtime relies on.
package kafkabus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	kafka "github.com/segmentio/kafka-go"

	"github.com/correlator-io/correlator/internal/bus"
)

const defaultPopTimeout = 200 * time.Millisecond

// Bus produces to and consumes from Kafka topics named after the queue.
// Readers are created lazily, one per queue, and reused across calls.
type Bus struct {
	brokers    []string
	groupID    string
	popTimeout time.Duration

	writer *kafka.Writer

	mu      sync.Mutex
	readers map[string]*kafka.Reader
}

// New returns a Bus that produces and consumes against the given broker
// addresses. groupID scopes the consumer group used for Pop; every
// Bus instance sharing a groupID competes for the same partitions.
func New(brokers []string, groupID string) *Bus {
	return &Bus{
		brokers:    brokers,
		groupID:    groupID,
		popTimeout: defaultPopTimeout,
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Balancer: &kafka.LeastBytes{},
		},
		readers: make(map[string]*kafka.Reader),
	}
}

// Push produces env, JSON-encoded, as a single message to the topic
// named queue.
func (b *Bus) Push(ctx context.Context, queue string, env bus.Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	err = b.writer.WriteMessages(ctx, kafka.Message{
		Topic: queue,
		Key:   []byte(env.CorrelationID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("produce to %s: %w", queue, err)
	}

	return nil
}

// Pop attempts to consume a single message from the topic named queue,
// bounded by a short internal deadline so it never blocks the worker
// loop. ok is false when no message arrived before the deadline.
func (b *Bus) Pop(ctx context.Context, queue string) (bus.Envelope, bool, error) {
	reader := b.readerFor(queue)

	popCtx, cancel := context.WithTimeout(ctx, b.popTimeout)
	defer cancel()

	msg, err := reader.ReadMessage(popCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return bus.Envelope{}, false, nil
		}

		return bus.Envelope{}, false, fmt.Errorf("consume from %s: %w", queue, err)
	}

	var env bus.Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return bus.Envelope{}, false, fmt.Errorf("decode message from %s: %w", queue, err)
	}

	return env, true, nil
}

// Close releases the writer and every reader created by Pop.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var firstErr error

	if err := b.writer.Close(); err != nil {
		firstErr = err
	}

	for _, r := range b.readers {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

func (b *Bus) readerFor(queue string) *kafka.Reader {
	b.mu.Lock()
	defer b.mu.Unlock()

	if r, ok := b.readers[queue]; ok {
		return r
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: b.brokers,
		GroupID: b.groupID,
		Topic:   queue,
	})

	b.readers[queue] = r

	return r
}
