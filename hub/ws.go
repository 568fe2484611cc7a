package hub

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 45 * time.Second
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// inboundPayload is what clients send us. Room joins are the only actions.
type inboundPayload struct {
	Action string `json:"action"` // "joinAdmin", "joinUser"
}

func marshalFrame(frame any) ([]byte, error) {
	return json.Marshal(frame)
}

// WebSocketHandler upgrades the connection and registers a fresh session.
func WebSocketHandler(h *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade:", err)
			return
		}

		session := NewSession(conn)
		h.register <- session
		log.Printf("session connected: %s", session.ID)

		go writePump(session)
		go readPump(session, h)
	}
}

func writePump(s *Session) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.Send:
			s.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			s.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func readPump(s *Session, h *Hub) {
	defer func() {
		h.unregister <- s
		s.Conn.Close()
		log.Printf("session disconnected: %s", s.ID)
	}()

	s.Conn.SetReadLimit(512)
	s.Conn.SetReadDeadline(time.Now().Add(pongWait))
	s.Conn.SetPongHandler(func(string) error {
		s.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := s.Conn.ReadMessage()
		if err != nil {
			break
		}

		var in inboundPayload
		if err := json.Unmarshal(raw, &in); err != nil {
			log.Println("invalid payload:", err)
			continue
		}

		switch in.Action {
		case "joinAdmin":
			h.join <- joinMsg{session: s, room: RoomAdmin}
		case "joinUser":
			h.join <- joinMsg{session: s, room: RoomUser}
		default:
			log.Println("unknown action:", in.Action)
		}
	}
}
