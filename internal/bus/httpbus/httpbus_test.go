package httpbus

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/correlator-io/correlator/internal/bus"
)

func TestClient_PushSendsJSONToFixedPath(t *testing.T) {
	var gotPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path

		var env bus.Envelope
		if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
			t.Fatalf("decode: %v", err)
		}

		if env.EventName != "OrderCreated" {
			t.Errorf("expected OrderCreated, got %q", env.EventName)
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL)

	err := c.Push(context.Background(), "orders", bus.Envelope{EventName: "OrderCreated"})
	if err != nil {
		t.Fatalf("push: %v", err)
	}

	if gotPath != "/queues/orders/push" {
		t.Errorf("expected /queues/orders/push, got %q", gotPath)
	}
}

func TestClient_PopNoContentMeansEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL)

	_, ok, err := c.Pop(context.Background(), "orders")
	if err != nil {
		t.Fatalf("pop: %v", err)
	}

	if ok {
		t.Fatal("expected ok=false on 204")
	}
}

func TestClient_PopDecodesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(bus.Envelope{EventName: "OrderCreated", EventID: "e1"})
	}))
	defer srv.Close()

	c := New(srv.URL)

	env, ok, err := c.Pop(context.Background(), "orders")
	if err != nil {
		t.Fatalf("pop: %v", err)
	}

	if !ok || env.EventID != "e1" {
		t.Fatalf("expected e1, got ok=%v env=%+v", ok, env)
	}
}

func TestClient_PushNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL)

	err := c.Push(context.Background(), "orders", bus.Envelope{})
	if err == nil {
		t.Fatal("expected an error on 500")
	}
}
