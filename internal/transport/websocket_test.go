// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/queuewatch/internal/breaker"
	"github.com/tomtom215/queuewatch/internal/idle"
	"github.com/tomtom215/queuewatch/internal/textextract"
)

var upgrader = websocket.Upgrader{}

// relay is a scripted relay server. script runs after the upgrade; frames
// the client writes are collected in received.
type relay struct {
	server   *httptest.Server
	mu       sync.Mutex
	received []map[string]interface{}
	auth     string
}

func newRelay(t *testing.T, script func(ws *websocket.Conn)) *relay {
	t.Helper()
	r := &relay{}
	r.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.mu.Lock()
		r.auth = req.Header.Get("Authorization")
		r.mu.Unlock()
		ws, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		go func() {
			for {
				_, data, err := ws.ReadMessage()
				if err != nil {
					return
				}
				var m map[string]interface{}
				if json.Unmarshal(data, &m) == nil {
					r.mu.Lock()
					r.received = append(r.received, m)
					r.mu.Unlock()
				}
			}
		}()
		script(ws)
	}))
	t.Cleanup(r.server.Close)
	return r
}

func (r *relay) url() string {
	return "ws" + strings.TrimPrefix(r.server.URL, "http")
}

func (r *relay) frames() []map[string]interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]map[string]interface{}(nil), r.received...)
}

func send(ws *websocket.Conn, frame string) {
	_ = ws.WriteMessage(websocket.TextMessage, []byte(frame))
}

func testConfig(name, url string) Config {
	return Config{
		URL:              url,
		Token:            "secret",
		HandshakeTimeout: 2 * time.Second,
		Breaker:          breaker.Settings{Name: name, FailureThreshold: 2, Timeout: time.Hour},
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWebSocketDialer_SessionFlow(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	r := newRelay(t, func(ws *websocket.Conn) {
		send(ws, `{"type":"status","payload":"ignored before login"}`)
		send(ws, `{"type":"login"}`)
		send(ws, `{"type":"position","x":1.5,"y":64,"z":-3}`)
		send(ws, `{"type":"status","payload":{"text":"Position in queue: ","extra":[{"text":"412"}]}}`)
		send(ws, `{"type":"chat","payload":"\"Connected to the server.\""}`)
		send(ws, `{"type":"consumer","attached":true}`)
		<-release
	})
	defer close(release)

	var (
		mu       sync.Mutex
		statuses []string
		chats    []string
		consumer bool
	)
	l := Listener{
		OnStatus: func(p []byte) {
			mu.Lock()
			statuses = append(statuses, textextract.Flatten(p))
			mu.Unlock()
		},
		OnChat: func(p []byte) {
			mu.Lock()
			chats = append(chats, textextract.Flatten(p))
			mu.Unlock()
		},
		OnConsumer: func(a bool) {
			mu.Lock()
			consumer = a
			mu.Unlock()
		},
	}

	d := NewWebSocketDialer(testConfig("relay-flow", r.url()))
	conn, err := d.Dial(context.Background(), l)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	conn.Start()
	defer conn.Close()

	waitFor(t, "consumer frame", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return consumer
	})

	mu.Lock()
	if len(statuses) != 1 || statuses[0] != "Position in queue: 412" {
		t.Errorf("statuses = %q", statuses)
	}
	if len(chats) != 1 || chats[0] != "Connected to the server." {
		t.Errorf("chats = %q", chats)
	}
	mu.Unlock()

	pos, ok := conn.Position()
	if !ok || pos != (idle.Vec3{X: 1.5, Y: 64, Z: -3}) {
		t.Errorf("Position() = %v, %v", pos, ok)
	}

	if err := conn.SetControl(idle.ControlForward, false); err != nil {
		t.Fatalf("SetControl() error = %v", err)
	}
	if err := conn.Look(90, 0); err != nil {
		t.Fatalf("Look() error = %v", err)
	}
	if err := conn.Swing(); err != nil {
		t.Fatalf("Swing() error = %v", err)
	}
	waitFor(t, "outbound frames", func() bool { return len(r.frames()) == 3 })

	frames := r.frames()
	if frames[0]["type"] != "control" || frames[0]["control"] != "forward" || frames[0]["state"] != false {
		t.Errorf("control frame = %v", frames[0])
	}
	if frames[1]["type"] != "look" || frames[1]["yaw"] != 90.0 {
		t.Errorf("look frame = %v", frames[1])
	}
	if frames[2]["type"] != "swing" {
		t.Errorf("swing frame = %v", frames[2])
	}

	r.mu.Lock()
	if r.auth != "Bearer secret" {
		t.Errorf("Authorization = %q", r.auth)
	}
	r.mu.Unlock()
}

func TestWebSocketDialer_HandshakeTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	r := newRelay(t, func(*websocket.Conn) { <-release })
	defer close(release)

	cfg := testConfig("relay-timeout", r.url())
	cfg.HandshakeTimeout = 100 * time.Millisecond
	_, err := NewWebSocketDialer(cfg).Dial(context.Background(), Listener{})
	if !errors.Is(err, ErrHandshakeTimeout) {
		t.Fatalf("Dial() error = %v, want ErrHandshakeTimeout", err)
	}
}

func TestWebSocketDialer_KickDuringHandshake(t *testing.T) {
	t.Parallel()

	r := newRelay(t, func(ws *websocket.Conn) {
		send(ws, `{"type":"kick","payload":{"text":"Server is full"}}`)
		time.Sleep(100 * time.Millisecond)
	})

	_, err := NewWebSocketDialer(testConfig("relay-kick-handshake", r.url())).Dial(context.Background(), Listener{})
	if !errors.Is(err, ErrKicked) {
		t.Fatalf("Dial() error = %v, want ErrKicked", err)
	}
	if !strings.Contains(err.Error(), "Server is full") {
		t.Errorf("error %q should carry the kick reason", err)
	}
}

func TestWebSocketDialer_KickFiresDisconnectOnce(t *testing.T) {
	t.Parallel()

	r := newRelay(t, func(ws *websocket.Conn) {
		send(ws, `{"type":"login"}`)
		send(ws, `{"type":"kick","payload":"Timed out"}`)
		time.Sleep(200 * time.Millisecond)
	})

	var (
		mu    sync.Mutex
		calls []error
	)
	conn, err := NewWebSocketDialer(testConfig("relay-kick", r.url())).Dial(context.Background(), Listener{
		OnDisconnect: func(err error) {
			mu.Lock()
			calls = append(calls, err)
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	conn.Start()

	waitFor(t, "disconnect", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(calls) > 0
	})
	_ = conn.Close()
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 1 {
		t.Fatalf("OnDisconnect called %d times, want 1", len(calls))
	}
	if !errors.Is(calls[0], ErrKicked) {
		t.Errorf("disconnect cause = %v, want ErrKicked", calls[0])
	}
}

func TestWebSocketDialer_CloseReportsCleanDisconnect(t *testing.T) {
	t.Parallel()

	r := newRelay(t, func(ws *websocket.Conn) {
		send(ws, `{"type":"login"}`)
		for {
			if _, _, err := ws.NextReader(); err != nil {
				return
			}
		}
	})

	disconnected := make(chan error, 2)
	conn, err := NewWebSocketDialer(testConfig("relay-close", r.url())).Dial(context.Background(), Listener{
		OnDisconnect: func(err error) { disconnected <- err },
	})
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	conn.Start()

	if err := conn.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	select {
	case err := <-disconnected:
		if err != nil {
			t.Errorf("disconnect cause = %v, want nil after Close", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no disconnect after Close")
	}
	if err := conn.Swing(); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Swing() after Close = %v, want ErrNotConnected", err)
	}
	_ = conn.Close()
}

func TestWebSocketDialer_BreakerOpensOnDeadRelay(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	d := NewWebSocketDialer(testConfig("relay-dead", url))
	for i := 0; i < 2; i++ {
		if _, err := d.Dial(context.Background(), Listener{}); err == nil || breaker.IsRejected(err) {
			t.Fatalf("attempt %d: err = %v, want a dial failure", i, err)
		}
	}
	if _, err := d.Dial(context.Background(), Listener{}); !breaker.IsRejected(err) {
		t.Errorf("third Dial() = %v, want breaker rejection", err)
	}
}
