package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/edlund/sentinel/internal/model"
	"github.com/edlund/sentinel/internal/stream"
)

const writeTimeout = 10 * time.Second

type Stream struct {
	hub    *stream.Hub
	logger zerolog.Logger
}

func NewStream(hub *stream.Hub, logger zerolog.Logger) *Stream {
	return &Stream{hub: hub, logger: logger}
}

// Connect godoc
//
//	@Summary		Live threat stream
//	@Description	Upgrades to WebSocket and pushes security events (new attacks, new threats) as JSON messages until the client disconnects. Authenticate with the api_key query parameter.
//	@Tags			Stream
//	@Security		ApiKeyAuth
//	@Param			severity	query	string	false	"Only events at or above this severity"
//	@Success		101
//	@Router			/stream [get]
func (h *Stream) Connect(w http.ResponseWriter, r *http.Request) {
	minSeverity := r.URL.Query().Get("severity")

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Origin differs from Host when proxied through the dashboard UI.
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer ws.CloseNow()

	events, cancel := h.hub.Subscribe()
	defer cancel()

	// Drain client frames so pings are answered and closure is noticed.
	readCtx := ws.CloseRead(r.Context())

	for {
		select {
		case <-readCtx.Done():
			ws.Close(websocket.StatusNormalClosure, "")
			return
		case ev, ok := <-events:
			if !ok {
				ws.Close(websocket.StatusTryAgainLater, "stream buffer overflow")
				return
			}
			if minSeverity != "" && !model.SeverityAtLeast(ev.Severity, minSeverity) {
				continue
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			writeCtx, writeCancel := context.WithTimeout(readCtx, writeTimeout)
			err = ws.Write(writeCtx, websocket.MessageText, payload)
			writeCancel()
			if err != nil {
				return
			}
		}
	}
}
