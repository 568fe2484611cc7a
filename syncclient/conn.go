// Package syncclient is the embeddable client side of the sync channel:
// a reconnecting websocket subscription plus in-memory agents that keep a
// local menu and settings view converged with the server's broadcasts.
package syncclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"sherpa/models"

	"github.com/gorilla/websocket"
)

// FrameHandler receives every decoded frame on a subscribed channel.
type FrameHandler func(frame models.Frame)

const (
	handshakeTimeout  = 10 * time.Second
	readTimeout       = 60 * time.Second
	pingInterval      = 30 * time.Second
	reconnectDelayMin = 1 * time.Second
	reconnectDelayMax = 32 * time.Second
)

// Conn maintains the websocket subscription. It reconnects on its own with
// exponential backoff and re-joins its room, but never re-fetches data:
// catching up after a gap is the owner's job via the agents' LoadSnapshot.
type Conn struct {
	wsURL string
	room  string

	conn   *websocket.Conn
	connMu sync.RWMutex

	stopChan  chan struct{}
	stopOnce  sync.Once
	loopsOnce sync.Once
	wg        sync.WaitGroup

	handlerMu    sync.RWMutex
	handlers     map[string][]FrameHandler
	connectivity []func(connected bool)
}

// NewConn prepares a client for the given websocket URL. Room is the join
// action sent after each (re)connect: "joinAdmin" or "joinUser".
func NewConn(wsURL, room string) *Conn {
	return &Conn{
		wsURL:    wsURL,
		room:     room,
		stopChan: make(chan struct{}),
		handlers: make(map[string][]FrameHandler),
	}
}

// On subscribes a handler to one frame channel.
func (c *Conn) On(channel string, fn FrameHandler) {
	c.handlerMu.Lock()
	c.handlers[channel] = append(c.handlers[channel], fn)
	c.handlerMu.Unlock()
}

// OnConnectivity registers a callback invoked on every connect and
// disconnect. Multiple callbacks may be registered.
func (c *Conn) OnConnectivity(fn func(connected bool)) {
	c.handlerMu.Lock()
	c.connectivity = append(c.connectivity, fn)
	c.handlerMu.Unlock()
}

// Connect dials the server, joins the room and starts the listen and ping
// loops. Safe to call when already connected: exactly one loop pair runs
// for the Conn's lifetime, reconnects reuse it.
func (c *Conn) Connect(ctx context.Context) error {
	if err := c.dial(ctx); err != nil {
		return err
	}

	c.loopsOnce.Do(func() {
		c.wg.Add(2)
		go c.listen(ctx)
		go c.pingLoop(ctx)
	})

	return nil
}

// dial establishes the websocket connection and joins the room. It never
// spawns goroutines, so the listen loop can call it on reconnect.
func (c *Conn) dial(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn != nil {
		return nil
	}

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, c.wsURL, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("websocket dial failed: %w", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	c.conn = conn
	if err := conn.WriteJSON(map[string]string{"action": c.room}); err != nil {
		log.Println("syncclient: join failed:", err)
	}
	c.notifyConnectivity(true)

	return nil
}

// IsConnected reports whether the subscription is currently live.
func (c *Conn) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.conn != nil
}

// Close stops the loops and drops the connection.
func (c *Conn) Close() {
	c.stopOnce.Do(func() { close(c.stopChan) })
	c.closeConnection()
	c.wg.Wait()
}

func (c *Conn) listen(ctx context.Context) {
	defer c.wg.Done()

	delay := reconnectDelayMin

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopChan:
			return
		default:
			c.connMu.RLock()
			conn := c.conn
			c.connMu.RUnlock()

			if conn == nil {
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return
				case <-c.stopChan:
					return
				}
				delay *= 2
				if delay > reconnectDelayMax {
					delay = reconnectDelayMax
				}

				if err := c.dial(ctx); err != nil {
					log.Println("syncclient: reconnect failed:", err)
					continue
				}
				delay = reconnectDelayMin
				continue
			}

			conn.SetReadDeadline(time.Now().Add(readTimeout))
			_, message, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Println("syncclient: read error:", err)
				}
				c.closeConnection()
				continue
			}

			delay = reconnectDelayMin
			c.dispatch(message)
		}
	}
}

func (c *Conn) dispatch(message []byte) {
	var frame models.Frame
	if err := json.Unmarshal(message, &frame); err != nil {
		log.Println("syncclient: bad frame:", err)
		return
	}

	c.handlerMu.RLock()
	handlers := c.handlers[frame.Channel]
	c.handlerMu.RUnlock()

	for _, fn := range handlers {
		fn(frame)
	}
}

func (c *Conn) pingLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.connMu.RLock()
			conn := c.conn
			c.connMu.RUnlock()
			if conn == nil {
				continue
			}
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(handshakeTimeout)); err != nil {
				log.Println("syncclient: ping failed:", err)
			}
		}
	}
}

func (c *Conn) closeConnection() {
	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
		c.connMu.Unlock()
		c.notifyConnectivity(false)
		return
	}
	c.connMu.Unlock()
}

func (c *Conn) notifyConnectivity(connected bool) {
	c.handlerMu.RLock()
	callbacks := append([]func(bool){}, c.connectivity...)
	c.handlerMu.RUnlock()
	for _, fn := range callbacks {
		fn(connected)
	}
}
