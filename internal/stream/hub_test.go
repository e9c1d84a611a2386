package stream

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// dial starts a hub-backed test server and connects one client.
func dial(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(h.HandleWS))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestBroadcastDeliversEnvelope(t *testing.T) {
	h := NewHub()
	go h.Run()

	conn := dial(t, h)

	// Wait for the register to land before broadcasting.
	deadline := time.Now().Add(2 * time.Second)
	for {
		h.mu.RLock()
		n := len(h.clients)
		h.mu.RUnlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	h.Broadcast("indices_update", []string{"SPY"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != "indices_update" {
		t.Errorf("type = %q, want indices_update", msg.Type)
	}
	if msg.Timestamp.IsZero() {
		t.Error("timestamp should be set")
	}
}

func TestConcurrentBroadcastsAndPings(t *testing.T) {
	// Shrink the ping interval so pings and broadcasts interleave on the
	// same connection; the per-client write mutex must keep them apart.
	old := pingInterval
	pingInterval = time.Millisecond
	defer func() { pingInterval = old }()

	h := NewHub()
	go h.Run()

	conn := dial(t, h)

	deadline := time.Now().Add(2 * time.Second)
	for {
		h.mu.RLock()
		n := len(h.clients)
		h.mu.RUnlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	const sends = 50
	var wg sync.WaitGroup
	for g := 0; g < 2; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < sends; i++ {
				h.Broadcast("quote_update", map[string]int{"n": i})
				time.Sleep(time.Millisecond)
			}
		}()
	}

	// Drain messages while the writers run. Pings are handled by the read
	// loop internally; every data frame must still decode cleanly.
	got := 0
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for got < sends { // at least half arrive even if the buffer drops some
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read after %d messages: %v", got, err)
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decode: %v", err)
		}
		got++
	}
	wg.Wait()
}
