package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/raysh454/trimetric/internal/logging"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// handleScoresWS godoc
// @Summary Live score document
// @Description WebSocket. Sends the current document, then every committed update for the firm.
// @Tags scores
// @Param firm path string true "firm slug or id"
// @Success 101 {object} model.ScoresData
// @Failure 404 {object} ErrorResponse
// @Router /ws/firms/{firm}/scores [get]
func (s *Server) handleScoresWS(w http.ResponseWriter, r *http.Request) {
	hub := s.orchestrator.Hub()
	if hub == nil {
		writeError(w, http.StatusServiceUnavailable, "live updates are disabled")
		return
	}

	firm, err := s.orchestrator.GetFirm(r.Context(), chi.URLParam(r, "firm"))
	if err != nil {
		s.writeServiceError(w, "opening score stream", err)
		return
	}

	// Subscribe before reading so a commit landing in between is queued.
	sub := hub.Subscribe(firm.ID)
	defer sub.Close()

	doc, err := s.orchestrator.GetScores(r.Context(), firm.ID)
	if err != nil {
		s.writeServiceError(w, "opening score stream", err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Err(err))
		return
	}
	defer conn.Close()

	s.logger.Info("score stream opened", logging.Field{Key: "firm_id", Value: doc.FirmID})

	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteJSON(doc); err != nil {
		return
	}
	sent := doc.Revision

	// The read side only services control frames and notices disconnects.
	gone := make(chan struct{})
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case next, ok := <-sub.C():
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(wsWriteWait))
				return
			}
			// Already covered by the document sent so far.
			if next.Revision <= sent {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(next); err != nil {
				return
			}
			sent = next.Revision
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		case <-gone:
			return
		case <-r.Context().Done():
			return
		}
	}
}
