package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lexc24/tictactoe/internal/dependencies/ident"
	"github.com/lexc24/tictactoe/internal/model"
	"github.com/lexc24/tictactoe/internal/services/matchmaking"
)

// departTimeout bounds the store work triggered by a disconnect, whose
// request context is already gone
const departTimeout = 5 * time.Second

// Handler upgrades HTTP requests to websocket connections and drives the
// matchmaking lifecycle from connection events: connect admits and queues
// the participant, incoming frames request transitions, disconnect
// departs it.
type Handler struct {
	hub        *Hub
	controller *matchmaking.Controller
	ident      ident.Generator
	logger     *slog.Logger
	upgrader   websocket.Upgrader
}

// NewHandler creates a new websocket handler
func NewHandler(hub *Hub, controller *matchmaking.Controller, gen ident.Generator, logger *slog.Logger) *Handler {
	return &Handler{
		hub:        hub,
		controller: controller,
		ident:      gen,
		logger:     logger.With(slog.String("component", "ws-handler")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin checks are the deployment proxy's concern
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	id := model.ParticipantID(h.ident.NewID())
	ctx := r.Context()

	p, err := h.controller.OnAdmit(ctx, id)
	if err != nil {
		h.logger.Error("admission failed",
			slog.String("participant_id", string(id)),
			slog.Any("error", err))
		_ = conn.Close()
		return
	}

	// Two-phase admission: the record exists, now ask for a queue
	// position on the client's behalf
	status, marker, err := h.controller.OnQueueRequest(ctx, id)
	if err != nil {
		h.logger.Error("initial queue request failed",
			slog.String("participant_id", string(id)),
			slog.Any("error", err))
		status = model.StatusInactive
	}

	client := newClient(id, conn, h.hub)
	h.hub.register <- client
	go client.writePump()

	client.Send(OutgoingMessage{
		Action: ActionInfo,
		Data: InfoPayload{
			ConnectionID: id,
			SessionID:    p.SessionID,
			Status:       status,
			Marker:       marker,
		},
	})

	h.readLoop(client)
}

// readLoop consumes frames until the connection dies, then tears the
// participant down
func (h *Handler) readLoop(client *Client) {
	defer func() {
		h.hub.unregister <- client
		_ = client.conn.Close()

		ctx, cancel := context.WithTimeout(context.Background(), departTimeout)
		defer cancel()
		if err := h.controller.OnDepart(ctx, client.id); err != nil {
			h.logger.Error("departure failed",
				slog.String("participant_id", string(client.id)),
				slog.Any("error", err))
		}
	}()

	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg IncomingMessage
		if err := client.conn.ReadJSON(&msg); err != nil {
			return
		}
		h.handleMessage(client, msg)
	}
}

func (h *Handler) handleMessage(client *Client, msg IncomingMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), departTimeout)
	defer cancel()

	switch msg.Action {
	case ActionJoinQueue:
		status, marker, err := h.controller.OnQueueRequest(ctx, client.id)
		if err != nil {
			h.sendError(client, err)
			return
		}
		client.Send(OutgoingMessage{
			Action: ActionJoinQueue,
			Data:   JoinQueuePayload{Status: status, Marker: marker},
		})

	case ActionGameOver:
		if err := h.controller.OnGameResult(ctx, model.ParticipantID(msg.LoserID)); err != nil {
			h.sendError(client, err)
		}

	case ActionSetUsername:
		if msg.Username == "" {
			h.sendError(client, errors.New("username must not be empty"))
			return
		}
		if err := h.controller.SetUsername(ctx, client.id, msg.Username); err != nil {
			h.sendError(client, err)
		}

	default:
		h.logger.Warn("unknown action",
			slog.String("participant_id", string(client.id)),
			slog.String("action", msg.Action))
		h.sendError(client, errors.New("unknown action: "+msg.Action))
	}
}

func (h *Handler) sendError(client *Client, err error) {
	client.Send(OutgoingMessage{
		Action: ActionError,
		Data:   ErrorPayload{Message: err.Error()},
	})
}
