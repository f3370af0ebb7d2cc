package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/SumukhChakkirala/chatApp/internal/app/registry"
	"github.com/SumukhChakkirala/chatApp/internal/app/server/ws"
	"github.com/SumukhChakkirala/chatApp/internal/core/domain"
	"github.com/SumukhChakkirala/chatApp/internal/core/services"
	"github.com/SumukhChakkirala/chatApp/pkg/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var wsTracer = otel.Tracer("ws-handler")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // tighten later
	},
}

// WSHandler upgrades authenticated requests and runs the connection
// session: joins the personal and system rooms, marks the user online,
// dispatches inbound frames, and guarantees disconnect cleanup on every
// exit path.
type WSHandler struct {
	hub      *registry.Registry
	presence *services.PresenceTracker
	gate     *services.MembershipGate
	messages *services.MessageService
}

func NewWSHandler(
	hub *registry.Registry,
	presence *services.PresenceTracker,
	gate *services.MembershipGate,
	messages *services.MessageService,
) *WSHandler {
	return &WSHandler{
		hub:      hub,
		presence: presence,
		gate:     gate,
		messages: messages,
	}
}

func (h *WSHandler) Handler(w http.ResponseWriter, r *http.Request) {
	log := middleware.LoggerFrom(r.Context())
	userID, ok := r.Context().Value(middleware.UserIDKey).(uuid.UUID)
	if !ok {
		log.ErrorContext(r.Context(), "ws handler - unauthorized - missing user id")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("user.id", userID.String()))

	// The session outlives the upgrade request.
	sessionCtx := context.WithoutCancel(r.Context())
	ctx, cancel := context.WithCancel(sessionCtx)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.ErrorContext(r.Context(), "ws handler - upgrade failed", "err", err)
		cancel()
		return
	}
	socket := ws.NewWebSocket(ctx, conn)
	client := ws.NewClient(ctx, socket, userID)

	// Every connection lives in its owner's personal room and the system
	// room; server rooms are gated joins requested by frames.
	h.hub.Join(client, domain.PersonalRoom(userID))
	h.hub.Join(client, domain.SystemRoom())
	h.presence.MarkOnline(ctx, userID, client.ID())
	log.InfoContext(ctx, "ws handler - connected", "user_id", userID.String(), "conn_id", client.ID())

	defer func() {
		h.hub.Disconnect(client)
		h.presence.MarkOffline(ctx, userID, client.ID())
		client.Close()
		cancel()
		log.InfoContext(ctx, "ws handler - disconnected", "user_id", userID.String(), "conn_id", client.ID())
	}()

	// Frames handled synchronously so one connection's events keep their
	// order; store calls inside block only this connection.
	socket.ReadLoop(func(data []byte) {
		h.dispatch(ctx, log, client, data)
	})
}

func (h *WSHandler) dispatch(ctx context.Context, log *slog.Logger, client *ws.RuntimeClient, data []byte) {
	ctx, span := wsTracer.Start(ctx, "WSHandler.dispatch", trace.WithAttributes(
		attribute.String("user.id", client.UserID().String()),
		attribute.Int("frame.size", len(data)),
	))
	defer span.End()

	var frame domain.ClientFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		h.sendError(ctx, client, "invalid frame")
		return
	}
	span.SetAttributes(attribute.String("frame.type", frame.Type))

	switch frame.Type {
	case domain.FrameJoin:
		// Personal and system rooms are joined at connect; the explicit
		// frame is accepted and idempotent.
		h.hub.Join(client, domain.PersonalRoom(client.UserID()))
		h.hub.Join(client, domain.SystemRoom())

	case domain.FrameJoinServer:
		serverID, err := uuid.Parse(frame.ServerID)
		if err != nil {
			h.sendError(ctx, client, "invalid server id")
			return
		}
		if err := h.gate.AuthorizeJoin(ctx, client.UserID(), serverID); err != nil {
			h.sendError(ctx, client, "not a member of this server")
			return
		}
		h.hub.Join(client, domain.ServerRoom(serverID))

	case domain.FrameLeaveServer:
		serverID, err := uuid.Parse(frame.ServerID)
		if err != nil {
			h.sendError(ctx, client, "invalid server id")
			return
		}
		h.hub.Leave(client, domain.ServerRoom(serverID))

	case domain.FrameServerMessage:
		serverID, err := uuid.Parse(frame.ServerID)
		if err != nil {
			h.sendError(ctx, client, "invalid message data")
			return
		}
		var replyTo *uuid.UUID
		if frame.ReplyToID != "" {
			id, err := uuid.Parse(frame.ReplyToID)
			if err != nil {
				h.sendError(ctx, client, "invalid reply reference")
				return
			}
			replyTo = &id
		}
		if _, err := h.messages.SendServer(ctx, client.UserID(), serverID, frame.Content, replyTo); err != nil {
			log.InfoContext(ctx, "ws handler - server message rejected", "user_id", client.UserID().String(), "server_id", serverID.String(), "err", err)
			h.sendError(ctx, client, userFacing(err))
			return
		}

	case domain.FrameOnline:
		h.presence.MarkOnline(ctx, client.UserID(), client.ID())

	case domain.FrameOffline:
		h.presence.MarkOffline(ctx, client.UserID(), client.ID())

	default:
		h.sendError(ctx, client, "unknown frame type")
	}
}

// sendError pushes an error event to the originating connection only.
// Logic errors never drop the connection.
func (h *WSHandler) sendError(ctx context.Context, client *ws.RuntimeClient, msg string) {
	data, err := json.Marshal(domain.ErrorEvent{Type: domain.EventError, Message: msg})
	if err != nil {
		return
	}
	_ = client.Send(ctx, data)
}
