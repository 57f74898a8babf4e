package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/interviewace/simulation-engine/internal/simulation"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleWatchWS streams turn events for one simulation over a
// websocket. The channel closes when the simulation ends, which closes
// the socket.
func (s *Server) handleWatchWS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "simulation id required", http.StatusBadRequest)
		return
	}

	if _, err := s.manager.Status(id); err != nil {
		if errors.Is(err, simulation.ErrSessionNotFound) {
			http.Error(w, "simulation not found", http.StatusNotFound)
			return
		}
		slog.Error("failed to get simulation", "id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	slog.Info("watch websocket connected", "simulation_id", id)

	sub := s.broadcaster.Subscribe(id)
	defer s.broadcaster.Unsubscribe(id, sub)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Unblock the read pump when either side is done.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	var wg sync.WaitGroup

	// Broadcaster -> websocket
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-sub:
				if !ok {
					conn.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, "simulation ended"))
					return
				}
				if err := conn.WriteJSON(event); err != nil {
					slog.Debug("failed to send turn event", "error", err)
					return
				}
			}
		}
	}()

	// Drain the websocket so client close is noticed
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					slog.Debug("websocket read error", "error", err)
				}
				return
			}
		}
	}()

	wg.Wait()
	slog.Info("watch websocket disconnected", "simulation_id", id)
}
