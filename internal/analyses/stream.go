package analyses

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/go-chi/chi/v5"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// events streams progress updates for one analysis over a WebSocket until
// the run reaches a terminal status.
func (h *routeHandler) events(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, err := h.svc.Store().Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if a == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "analysis not found"})
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("analyses: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	ch, cancel := h.svc.Subscribe(id)
	defer cancel()

	// Re-check after subscribing so a run that finished in between still
	// yields a final event.
	a, err = h.svc.Store().Get(r.Context(), id)
	if err == nil && a != nil && a.Terminal() {
		sendEvent(conn, Event{
			Type:       "status",
			AnalysisID: a.ID,
			Status:     a.Status,
			Message:    a.Error,
			Time:       time.Now().UTC(),
		})
		return
	}

	for {
		select {
		case ev := <-ch:
			if !sendEvent(conn, ev) {
				return
			}
			if ev.Terminal() {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

func sendEvent(conn *websocket.Conn, ev Event) bool {
	if err := conn.WriteJSON(ev); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
			log.Printf("analyses: websocket write: %v", err)
		}
		return false
	}
	return true
}
