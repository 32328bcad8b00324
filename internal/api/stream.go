package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tenlabs01/Diverss/internal/leads"
	"github.com/tenlabs01/Diverss/internal/orchestrator"
	"github.com/tenlabs01/Diverss/internal/portfolio"
)

const streamWriteWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client messages on the stream socket.
const (
	streamStart  = "start"
	streamCancel = "cancel"
	streamError  = "error"
)

type streamRequest struct {
	Type        string         `json:"type"`
	CSV         string         `json:"csv"`
	Holdings    []holdingInput `json:"holdings"`
	UserDetails *leads.Details `json:"userDetails"`
}

type streamErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// handleStream runs a sequential analysis over a websocket. The client
// sends one start message, then receives orchestrator events until the run
// ends. A cancel message, or closing the socket, aborts the run and the
// final event still carries every completed batch.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	logger := loggerFrom(r.Context(), h.logger)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(h.maxBodyBytes)

	send := func(v any) error {
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		return conn.WriteJSON(v)
	}
	reject := func(err error) {
		_, message := errorStatus(err, msgStockSenseFailed)
		_ = send(streamErrorMessage{Type: streamError, Message: message})
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, ""))
	}

	var start streamRequest
	if err := conn.ReadJSON(&start); err != nil {
		logger.Debug("stream closed before start", "error", err)
		return
	}
	if start.Type != streamStart {
		reject(ValidationError{Field: "type", Message: `First message must be {"type":"start"}.`})
		return
	}

	items, err := lineItems(start.CSV, start.Holdings)
	if err != nil {
		reject(err)
		return
	}
	details, err := normalizeDetails(start.UserDetails)
	if err != nil {
		reject(err)
		return
	}
	if h.runner == nil {
		reject(ErrMisconfigured)
		return
	}

	h.captureLead(r, details, portfolio.Describe(items))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go func() {
		defer cancel()
		for {
			var msg streamRequest
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			if msg.Type == streamCancel {
				logger.Info("stream cancelled by client")
				return
			}
		}
	}()

	result, err := h.runner.RunSequential(ctx, items, orchestrator.ObserverFunc(func(e orchestrator.Event) {
		if werr := send(e); werr != nil {
			logger.Debug("stream write failed", "event", e.Type, "error", werr)
		}
	}))
	if result == nil {
		reject(err)
		return
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("stream run ended with error", "run_id", result.RunID, "state", result.State, "error", err)
	}

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(result.State)),
		time.Now().Add(streamWriteWait))
}
