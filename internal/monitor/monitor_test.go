package monitor

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"vrpsolve/internal/progress"
)

func TestEventsStream(t *testing.T) {
	broker := progress.NewMemory()
	srv := httptest.NewServer((&Server{Broker: broker}).Mux())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events?run=r1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	// Give the handler a moment to subscribe before publishing.
	deadline := time.Now().Add(time.Second)
	for {
		broker.Publish("r1", progress.Event{Type: progress.EventImprovement, Data: map[string]any{"iteration": 1}})
		_ = conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		var evt progress.Event
		if err := conn.ReadJSON(&evt); err == nil {
			if evt.Type != progress.EventImprovement {
				t.Fatalf("got %s", evt.Type)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("no event received")
		}
	}

	// A done event ends the stream server-side.
	broker.Publish("r1", progress.Event{Type: progress.EventDone})
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var evt progress.Event
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("done event: %v", err)
	}
	if evt.Type != progress.EventDone {
		t.Fatalf("got %s, want %s", evt.Type, progress.EventDone)
	}
}

func TestEventsRequiresRun(t *testing.T) {
	srv := httptest.NewServer((&Server{Broker: progress.NewMemory()}).Mux())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/events")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != 400 {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := httptest.NewServer((&Server{Broker: progress.NewMemory()}).Mux())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}
