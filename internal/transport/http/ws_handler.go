package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"trivia-client/internal/app"
	"trivia-client/internal/domain"
)

const closeGrace = 2 * time.Second

type WSHandler struct {
	service  *app.RoundService
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.RoundService, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	OptionID string `json:"optionId"`
}

type roundPayload struct {
	RoundID string      `json:"roundId"`
	Mode    domain.Mode `json:"mode"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request, starts one round for the connection and streams its events. Inbound
// "answer" and "exit" messages drive the round; a dropped connection exits it.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	mode, ok := domain.ParseMode(r.URL.Query().Get("mode"))
	if !ok {
		http.Error(w, "mode must be episode or mixed", http.StatusBadRequest)
		return
	}
	var episodeID int
	if mode == domain.ModeEpisode {
		id, err := strconv.Atoi(r.URL.Query().Get("episode"))
		if err != nil {
			http.Error(w, "missing or invalid episode", http.StatusBadRequest)
			return
		}
		episodeID = id
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	round, err := h.service.Prepare(ctx, mode, episodeID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	logger := h.logger.With("round_id", round.ID())

	updates, cancel := round.Subscribe()
	defer cancel()

	if err := conn.WriteJSON(outboundMessage[roundPayload]{Type: "round", Payload: roundPayload{RoundID: round.ID(), Mode: round.Mode()}}); err != nil {
		// an exited round aborts immediately and is unregistered by Play
		round.Exit()
		_ = h.service.Play(ctx, round)
		return
	}

	replies := make(chan outboundMessage[any], 4)
	writerDone := make(chan struct{})

	// Single writer: round events and replies to inbound messages share one goroutine.
	go func() {
		defer close(writerDone)
		for {
			select {
			case ev, ok := <-updates:
				if !ok {
					deadline := time.Now().Add(closeGrace)
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, "round finished"), deadline)
					_ = conn.SetReadDeadline(deadline)
					return
				}
				if err := conn.WriteJSON(outboundMessage[domain.Event]{Type: string(ev.Kind), Payload: ev}); err != nil {
					logger.Debug("ws write error", "error", err)
					round.Exit()
					return
				}
			case msg := <-replies:
				if err := conn.WriteJSON(msg); err != nil {
					logger.Debug("ws write error", "error", err)
					round.Exit()
					return
				}
			}
		}
	}()

	reply := func(msg outboundMessage[any]) {
		select {
		case replies <- msg:
		case <-writerDone:
		}
	}

	go func() {
		if err := h.service.Play(ctx, round); err != nil && !errors.Is(err, ctx.Err()) {
			logger.Warn("round finished with error", "error", err)
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.OptionID == "" {
				reply(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}})
				continue
			}
			if err := round.Answer(payload.OptionID); err != nil {
				reply(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
			}
		case "exit":
			round.Exit()
		default:
			reply(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}

	round.Exit()
	<-round.Done()
	<-writerDone
}
