package membus

import (
	"context"
	"testing"

	"github.com/correlator-io/correlator/internal/bus"
)

func TestBus_PopEmptyQueueReturnsNotOK(t *testing.T) {
	b := New()

	_, ok, err := b.Pop(context.Background(), "orders")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ok {
		t.Fatal("expected ok=false on an empty queue")
	}
}

func TestBus_PushThenPopFIFO(t *testing.T) {
	b := New()
	ctx := context.Background()

	first := bus.Envelope{EventName: "A", EventID: "1"}
	second := bus.Envelope{EventName: "A", EventID: "2"}

	if err := b.Push(ctx, "orders", first); err != nil {
		t.Fatalf("push: %v", err)
	}

	if err := b.Push(ctx, "orders", second); err != nil {
		t.Fatalf("push: %v", err)
	}

	got, ok, err := b.Pop(ctx, "orders")
	if err != nil || !ok {
		t.Fatalf("pop: ok=%v err=%v", ok, err)
	}

	if got.EventID != "1" {
		t.Fatalf("expected FIFO order, got %q first", got.EventID)
	}

	if b.Len("orders") != 1 {
		t.Fatalf("expected 1 remaining, got %d", b.Len("orders"))
	}
}

func TestBus_QueuesAreIndependent(t *testing.T) {
	b := New()
	ctx := context.Background()

	if err := b.Push(ctx, "orders", bus.Envelope{EventName: "A"}); err != nil {
		t.Fatalf("push: %v", err)
	}

	_, ok, _ := b.Pop(ctx, "payments")
	if ok {
		t.Fatal("expected the payments queue to stay empty")
	}
}
