// Package hub fans change events out to every connected viewer session
// over a persistent websocket channel. Sessions join a logical room
// (admin or user) after connecting; delivery is currently global across
// rooms, membership is recorded for future filtering.
package hub

import (
	"log"
	"sync"
	"time"

	"sherpa/models"
	"sherpa/utils"

	"github.com/gorilla/websocket"
)

// Rooms a session can join.
const (
	RoomAdmin = "admin"
	RoomUser  = "user"
)

// Session is one connected viewer. A reconnect creates a brand-new
// session id; nothing survives a disconnect.
type Session struct {
	ID          string
	Conn        *websocket.Conn
	Send        chan []byte
	Room        string
	ConnectedAt time.Time
}

type joinMsg struct {
	session *Session
	room    string
}

type Hub struct {
	sessions   map[*Session]bool
	register   chan *Session
	unregister chan *Session
	join       chan joinMsg
	broadcast  chan []byte
	stop       chan struct{}
	mu         sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		sessions:   make(map[*Session]bool),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		join:       make(chan joinMsg),
		broadcast:  make(chan []byte),
		stop:       make(chan struct{}),
	}
}

func NewSession(conn *websocket.Conn) *Session {
	return &Session{
		ID:          utils.GenerateID(),
		Conn:        conn,
		Send:        make(chan []byte, 256),
		ConnectedAt: time.Now(),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case s := <-h.register:
			h.mu.Lock()
			h.sessions[s] = true
			h.mu.Unlock()

		case s := <-h.unregister:
			h.mu.Lock()
			if h.sessions[s] {
				delete(h.sessions, s)
				close(s.Send)
			}
			h.mu.Unlock()

		case j := <-h.join:
			h.mu.Lock()
			if h.sessions[j.session] {
				j.session.Room = j.room
			}
			h.mu.Unlock()

		case data := <-h.broadcast:
			h.mu.Lock()
			for s := range h.sessions {
				select {
				case s.Send <- data:
				default:
					// Slow consumer: drop the session rather than block
					close(s.Send)
					delete(h.sessions, s)
				}
			}
			h.mu.Unlock()

		case <-h.stop:
			h.mu.Lock()
			for s := range h.sessions {
				close(s.Send)
				delete(h.sessions, s)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop shuts the hub down and disconnects every session.
func (h *Hub) Stop() {
	close(h.stop)
}

// Broadcast implements models.Broadcaster. Fire-and-forget: events reach
// the sessions connected right now; a stopped hub discards the event.
func (h *Hub) Broadcast(ev models.ChangeEvent) {
	frame, err := ev.Frame()
	if err != nil {
		log.Printf("hub: failed to build frame: %v", err)
		return
	}
	data, err := marshalFrame(frame)
	if err != nil {
		log.Printf("hub: failed to marshal frame: %v", err)
		return
	}
	select {
	case h.broadcast <- data:
	case <-h.stop:
	}
}

// SessionCount reports how many sessions are currently connected, and how
// many of them joined the given room.
func (h *Hub) SessionCount(room string) (total, inRoom int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.sessions {
		total++
		if s.Room == room {
			inRoom++
		}
	}
	return total, inRoom
}
