package main

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/superness/superaxecoinwallet/pkg/lib"
)

const (
	eventSubscriberCapacity = 256
	eventWriteTimeout       = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// handleEvents streams supervisor and wallet events over a websocket, one JSON
// object per message. The first message is a status snapshot.
func (s *NodeServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	ch, err := s.events.Subscribe(eventSubscriberCapacity)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, failure(err))
		return
	}
	defer s.events.Unsubscribe(ch)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// the reader only exists to notice the peer going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	st := s.sup.Status()
	snapshot := lib.StatusEvent(st.State, "")
	snapshot.RunID = st.RunID
	if err := s.writeEvent(conn, snapshot); err != nil {
		return
	}

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case ev, ok := <-ch:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(time.Second))
				return
			}
			if err := s.writeEvent(conn, ev); err != nil {
				s.logger.Debug("Event subscriber gone", "error", err)
				return
			}
		}
	}
}

func (s *NodeServer) writeEvent(conn *websocket.Conn, ev lib.Event) error {
	if err := conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(ev)
}
