package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AaronLay10/SentientSignals/internal/events"
)

// waitFor polls a condition until it returns true or timeout expires.
func waitFor(t *testing.T, timeout time.Duration, condition func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("timeout waiting for: %s", msg)
}

func dialEvents(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + query
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) events.Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read message: %v", err)
	}
	var e events.Event
	if err := json.Unmarshal(msg, &e); err != nil {
		t.Fatalf("failed to unmarshal event: %v", err)
	}
	return e
}

func TestWebSocketReceivesRecentEvents(t *testing.T) {
	events.Clear()

	for i := 0; i < 5; i++ {
		events.Emit("info", "intersection.updated", "", map[string]interface{}{"i": i})
	}

	server := httptest.NewServer(http.HandlerFunc(wsEventsHandler))
	defer server.Close()

	conn := dialEvents(t, server, "")
	defer conn.Close()

	for i := 0; i < 5; i++ {
		if e := readEvent(t, conn); e.Name != "intersection.updated" {
			t.Errorf("expected 'intersection.updated', got '%s'", e.Name)
		}
	}
}

func TestWebSocketReceivesNewEvents(t *testing.T) {
	events.Clear()

	server := httptest.NewServer(http.HandlerFunc(wsEventsHandler))
	defer server.Close()

	conn := dialEvents(t, server, "")
	defer conn.Close()

	go func() {
		time.Sleep(50 * time.Millisecond)
		events.Emit("info", "timing.optimized", "", map[string]interface{}{"intersection_id": "INT_002"})
	}()

	e := readEvent(t, conn)
	if e.Name != "timing.optimized" {
		t.Errorf("expected 'timing.optimized', got '%s'", e.Name)
	}
	if e.Fields["intersection_id"] != "INT_002" {
		t.Errorf("expected intersection_id 'INT_002', got '%v'", e.Fields["intersection_id"])
	}
}

func TestWebSocketFilterAndBacklog(t *testing.T) {
	events.Clear()

	events.Emit("info", "intersection.updated", "", nil)
	events.Emit("warning", "conflict.detected", "", map[string]interface{}{"type": "queue_overflow"})

	server := httptest.NewServer(http.HandlerFunc(wsEventsHandler))
	defer server.Close()

	conn := dialEvents(t, server, "?events=conflict.,feed.&recent=10")
	defer conn.Close()

	// Only the conflict survives the backlog filter.
	if e := readEvent(t, conn); e.Name != "conflict.detected" {
		t.Errorf("expected backlog 'conflict.detected', got '%s'", e.Name)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		events.Emit("info", "timing.optimized", "", nil)
		events.Emit("warning", "feed.stale", "", map[string]interface{}{"intersection_id": "INT_004"})
	}()

	if e := readEvent(t, conn); e.Name != "feed.stale" {
		t.Errorf("expected filtered live 'feed.stale', got '%s'", e.Name)
	}
}

func TestWebSocketDisconnectCleansUp(t *testing.T) {
	events.Clear()
	events.CloseAllSubscribers()

	server := httptest.NewServer(http.HandlerFunc(wsEventsHandler))
	defer server.Close()

	conn := dialEvents(t, server, "")

	go func() {
		time.Sleep(20 * time.Millisecond)
		events.Emit("info", "intersection.updated", "", map[string]interface{}{"test": "cleanup"})
	}()

	if e := readEvent(t, conn); e.Name != "intersection.updated" {
		t.Errorf("expected 'intersection.updated', got '%s'", e.Name)
	}

	conn.Close()

	// Emit events so the writer notices the closed socket.
	for i := 0; i < 5; i++ {
		events.Emit("info", "intersection.updated", "", nil)
		time.Sleep(50 * time.Millisecond)
	}

	waitFor(t, 5*time.Second, func() bool {
		return events.SubscriberCount() == 0
	}, "subscriber count to return to 0 after close")
}

func TestWebSocketMultipleClients(t *testing.T) {
	events.Clear()

	server := httptest.NewServer(http.HandlerFunc(wsEventsHandler))
	defer server.Close()

	conn1 := dialEvents(t, server, "")
	defer conn1.Close()
	conn2 := dialEvents(t, server, "")
	defer conn2.Close()

	go func() {
		time.Sleep(50 * time.Millisecond)
		events.Emit("info", "greenwave.coordinated", "", map[string]interface{}{"corridor": "Main Corridor"})
	}()

	if e := readEvent(t, conn1); e.Name != "greenwave.coordinated" {
		t.Errorf("client1: expected 'greenwave.coordinated', got '%s'", e.Name)
	}
	if e := readEvent(t, conn2); e.Name != "greenwave.coordinated" {
		t.Errorf("client2: expected 'greenwave.coordinated', got '%s'", e.Name)
	}
}
