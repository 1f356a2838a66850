// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tomtom215/queuewatch/internal/breaker"
	"github.com/tomtom215/queuewatch/internal/idle"
	"github.com/tomtom215/queuewatch/internal/logging"
	"github.com/tomtom215/queuewatch/internal/metrics"
	"github.com/tomtom215/queuewatch/internal/textextract"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024
)

// Config configures the websocket relay client.
type Config struct {
	URL              string
	Token            string
	HandshakeTimeout time.Duration
	Breaker          breaker.Settings
}

// WebSocketDialer dials the relay over a websocket.
type WebSocketDialer struct {
	cfg     Config
	dialer  *websocket.Dialer
	breaker *breaker.Breaker[*websocket.Conn]
}

// NewWebSocketDialer creates a dialer for cfg.
func NewWebSocketDialer(cfg Config) *WebSocketDialer {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 30 * time.Second
	}
	if cfg.Breaker.Name == "" {
		cfg.Breaker = breaker.DefaultSettings("relay")
	}
	return &WebSocketDialer{
		cfg: cfg,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		breaker: breaker.New[*websocket.Conn](cfg.Breaker),
	}
}

// Dial connects and waits for login. Call Start on the returned Conn to
// begin receiving frames.
func (d *WebSocketDialer) Dial(ctx context.Context, l Listener) (Conn, error) {
	ws, err := d.breaker.Execute(func() (*websocket.Conn, error) {
		return d.connect(ctx)
	})
	if err != nil {
		result := "failure"
		if breaker.IsRejected(err) {
			result = "rejected"
		}
		metrics.TransportDials.WithLabelValues(result).Inc()
		return nil, fmt.Errorf("dial relay: %w", err)
	}
	metrics.TransportDials.WithLabelValues("success").Inc()

	return newWSConn(ctx, ws, l), nil
}

// connect opens the websocket and consumes frames until login.
func (d *WebSocketDialer) connect(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if d.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+d.cfg.Token)
	}

	ws, resp, err := d.dialer.DialContext(ctx, d.cfg.URL, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}

	ws.SetReadLimit(maxMessageSize)
	if err := ws.SetReadDeadline(time.Now().Add(d.cfg.HandshakeTimeout)); err != nil {
		_ = ws.Close()
		return nil, err
	}

	// Close the socket if ctx ends mid-handshake so ReadMessage returns.
	stop := context.AfterFunc(ctx, func() { _ = ws.Close() })
	defer stop()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			_ = ws.Close()
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			var netErr interface{ Timeout() bool }
			if errors.As(err, &netErr) && netErr.Timeout() {
				return nil, ErrHandshakeTimeout
			}
			return nil, err
		}

		var f InboundFrame
		if err := json.Unmarshal(data, &f); err != nil {
			continue
		}
		metrics.RecordTransportFrame("in", f.Type)
		switch f.Type {
		case FrameLogin:
			if err := ws.SetReadDeadline(time.Time{}); err != nil {
				_ = ws.Close()
				return nil, err
			}
			return ws, nil
		case FrameKick:
			_ = ws.Close()
			return nil, fmt.Errorf("%w: %s", ErrKicked, textextract.Flatten(f.Payload))
		}
	}
}

type wsConn struct {
	ws       *websocket.Conn
	listener Listener
	logger   zerolog.Logger

	writeMu sync.Mutex

	mu      sync.RWMutex
	pos     idle.Vec3
	havePos bool
	closed  bool

	startOnce      sync.Once
	disconnectOnce sync.Once
	done           chan struct{}
}

// newWSConn tags the connection logger with the run ID carried by the dial
// context.
func newWSConn(ctx context.Context, ws *websocket.Conn, l Listener) *wsConn {
	return &wsConn{
		ws:       ws,
		listener: l,
		logger:   logging.Ctx(ctx).With().Str("component", "transport").Logger(),
		done:     make(chan struct{}),
	}
}

func (c *wsConn) Start() {
	c.startOnce.Do(func() {
		go c.readPump()
		go c.pingPump()
	})
}

func (c *wsConn) readPump() {
	var cause error
	defer func() {
		close(c.done)
		_ = c.ws.Close()
		c.disconnect(cause)
	}()

	if err := c.ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		cause = err
		return
	}
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if c.isClosed() {
				cause = nil
			} else {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					c.logger.Warn().Err(err).Msg("Relay connection closed unexpectedly")
				}
				cause = err
			}
			return
		}
		// Any frame proves the relay is alive.
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))

		var f InboundFrame
		if err := json.Unmarshal(data, &f); err != nil {
			c.logger.Debug().Err(err).Msg("Malformed relay frame ignored")
			continue
		}
		metrics.RecordTransportFrame("in", f.Type)

		if kicked := c.dispatch(f); kicked != nil {
			cause = kicked
			return
		}
	}
}

// dispatch routes a frame; a kick ends the read loop.
func (c *wsConn) dispatch(f InboundFrame) error {
	switch f.Type {
	case FrameStatus:
		if c.listener.OnStatus != nil {
			c.listener.OnStatus(f.Payload)
		}
	case FrameChat:
		if c.listener.OnChat != nil {
			c.listener.OnChat(f.Payload)
		}
	case FramePosition:
		c.mu.Lock()
		c.pos = idle.Vec3{X: f.X, Y: f.Y, Z: f.Z}
		c.havePos = true
		c.mu.Unlock()
	case FrameConsumer:
		if c.listener.OnConsumer != nil {
			c.listener.OnConsumer(f.Attached)
		}
	case FrameKick:
		return fmt.Errorf("%w: %s", ErrKicked, textextract.Flatten(f.Payload))
	case FrameLogin:
	default:
		c.logger.Debug().Str("frame_type", f.Type).Msg("Unknown relay frame ignored")
	}
	return nil
}

func (c *wsConn) pingPump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (c *wsConn) disconnect(err error) {
	c.disconnectOnce.Do(func() {
		if c.listener.OnDisconnect != nil {
			c.listener.OnDisconnect(err)
		}
	})
}

func (c *wsConn) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func (c *wsConn) write(frameType string, v interface{}) error {
	if c.isClosed() {
		return ErrNotConnected
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	metrics.RecordTransportFrame("out", frameType)
	return nil
}

func (c *wsConn) SetControl(control idle.Control, state bool) error {
	return c.write(FrameControl, controlFrame{Type: FrameControl, Control: string(control), State: state})
}

func (c *wsConn) Look(yaw, pitch float64) error {
	return c.write(FrameLook, lookFrame{Type: FrameLook, Yaw: yaw, Pitch: pitch})
}

func (c *wsConn) Swing() error {
	return c.write(FrameSwing, swingFrame{Type: FrameSwing})
}

func (c *wsConn) Position() (idle.Vec3, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pos, c.havePos
}

// Close sends a close frame and tears the socket down. The read loop then
// reports a nil-cause disconnect.
func (c *wsConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.writeMu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	c.writeMu.Unlock()
	return c.ws.Close()
}
