package http

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	eventBuffer   = 32
	writeDeadline = 10 * time.Second
	pingInterval  = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// handleEvents streams session lifecycle events over a websocket. The
// session must exist; the subscription ends when the client disconnects.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	if _, err := h.svc.GetSession(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("upgrade events stream for %s: %v", id, err)
		return
	}
	defer conn.Close()

	events, cancel := h.bus.Subscribe(id, eventBuffer)
	defer cancel()

	// Drain reads so close frames and pongs are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
