package ws

import (
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func newTestHub() *Hub {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewHub(log)
}

func TestEnvelope(t *testing.T) {
	raw := Envelope(MsgProgressUpdate, map[string]int{"completedActivities": 4})
	if raw == nil {
		t.Fatal("Envelope returned nil for a marshalable payload")
	}

	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("envelope is not valid JSON: %v", err)
	}
	if msg.Type != MsgProgressUpdate {
		t.Fatalf("type = %q, want %q", msg.Type, MsgProgressUpdate)
	}
	var payload map[string]int
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if payload["completedActivities"] != 4 {
		t.Fatalf("payload lost data: %v", payload)
	}

	if Envelope(MsgError, make(chan int)) != nil {
		t.Fatal("unmarshalable payload must produce nil")
	}
}

func TestPushDropsWhenBufferFull(t *testing.T) {
	conn := &Connection{UserID: "u1", Send: make(chan []byte, 1)}

	conn.Push([]byte("first"))
	conn.Push([]byte("second")) // buffer full, dropped
	conn.Push(nil)              // no-op

	if got := string(<-conn.Send); got != "first" {
		t.Fatalf("queued message = %q, want first", got)
	}
	select {
	case msg := <-conn.Send:
		t.Fatalf("unexpected extra message %q", msg)
	default:
	}
}

func TestRegisterUnregisterClosesSend(t *testing.T) {
	hub := newTestHub()
	conn := &Connection{UserID: "u1", Send: make(chan []byte, 1), Hub: hub}

	hub.Register(conn)
	hub.Unregister(conn)

	select {
	case _, ok := <-conn.Send:
		if ok {
			t.Fatal("expected closed send channel")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("send channel not closed after unregister")
	}

	// Unregistering twice must not double-close.
	hub.Unregister(conn)
}
