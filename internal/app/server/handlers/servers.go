package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/SumukhChakkirala/chatApp/internal/core/domain"
	"github.com/SumukhChakkirala/chatApp/internal/core/services"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ServerHandler struct {
	servers  *services.ServerService
	messages *services.MessageService
}

func NewServerHandler(servers *services.ServerService, messages *services.MessageService) *ServerHandler {
	return &ServerHandler{servers: servers, messages: messages}
}

func (h *ServerHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, envelope{"success": false, "error": "unauthorized"})
		return
	}
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	srv, err := h.servers.Create(r.Context(), userID, req.Name, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCreated(w, envelope{"server": srv, "message": "Server created successfully"})
}

func (h *ServerHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, envelope{"success": false, "error": "unauthorized"})
		return
	}
	list, err := h.servers.ListMine(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, envelope{"servers": list})
}

func (h *ServerHandler) Details(w http.ResponseWriter, r *http.Request) {
	userID, serverID, ok := h.serverScope(w, r)
	if !ok {
		return
	}
	detail, err := h.servers.Details(r.Context(), userID, serverID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, envelope{"server": detail})
}

func (h *ServerHandler) Invite(w http.ResponseWriter, r *http.Request) {
	userID, serverID, ok := h.serverScope(w, r)
	if !ok {
		return
	}
	var req struct {
		UserTag string `json:"user_tag"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	id, err := h.servers.Invite(r.Context(), userID, serverID, req.UserTag)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCreated(w, envelope{"invite_id": id, "message": "Invite sent successfully"})
}

func (h *ServerHandler) PendingInvites(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, envelope{"success": false, "error": "unauthorized"})
		return
	}
	invites, err := h.servers.PendingInvites(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, envelope{"invites": invites})
}

func (h *ServerHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	h.resolveInvite(w, r, h.servers.AcceptInvite, "Invite accepted")
}

func (h *ServerHandler) RejectInvite(w http.ResponseWriter, r *http.Request) {
	h.resolveInvite(w, r, h.servers.RejectInvite, "Invite rejected")
}

func (h *ServerHandler) resolveInvite(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, userID, inviteID uuid.UUID) error,
	okMsg string,
) {
	userID, ok := currentUser(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, envelope{"success": false, "error": "unauthorized"})
		return
	}
	inviteID, err := uuid.Parse(chi.URLParam(r, "inviteID"))
	if err != nil {
		writeError(w, fmt.Errorf("%w: invalid invite id", domain.ErrValidation))
		return
	}
	if err := fn(r.Context(), userID, inviteID); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, envelope{"message": okMsg})
}

func (h *ServerHandler) Leave(w http.ResponseWriter, r *http.Request) {
	userID, serverID, ok := h.serverScope(w, r)
	if !ok {
		return
	}
	if err := h.servers.Leave(r.Context(), userID, serverID); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, envelope{"message": "Left server successfully"})
}

func (h *ServerHandler) Messages(w http.ResponseWriter, r *http.Request) {
	userID, serverID, ok := h.serverScope(w, r)
	if !ok {
		return
	}
	views, err := h.messages.ListServer(r.Context(), userID, serverID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, envelope{"messages": views})
}

func (h *ServerHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, serverID, ok := h.serverScope(w, r)
	if !ok {
		return
	}
	var req struct {
		Content   string `json:"content"`
		ReplyToID string `json:"reply_to_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	var replyTo *uuid.UUID
	if req.ReplyToID != "" {
		id, err := uuid.Parse(req.ReplyToID)
		if err != nil {
			writeError(w, fmt.Errorf("%w: invalid reply reference", domain.ErrValidation))
			return
		}
		replyTo = &id
	}
	view, err := h.messages.SendServer(r.Context(), userID, serverID, req.Content, replyTo)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCreated(w, envelope{"message": view})
}

func (h *ServerHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	userID, serverID, ok := h.serverScope(w, r)
	if !ok {
		return
	}
	memberID, err := uuid.Parse(chi.URLParam(r, "memberID"))
	if err != nil {
		writeError(w, fmt.Errorf("%w: invalid member id", domain.ErrValidation))
		return
	}
	if err := h.servers.RemoveMember(r.Context(), userID, serverID, memberID); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, envelope{"message": "Member removed successfully"})
}

func (h *ServerHandler) serverScope(w http.ResponseWriter, r *http.Request) (userID, serverID uuid.UUID, ok bool) {
	userID, ok = currentUser(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, envelope{"success": false, "error": "unauthorized"})
		return uuid.Nil, uuid.Nil, false
	}
	serverID, err := uuid.Parse(chi.URLParam(r, "serverID"))
	if err != nil {
		writeError(w, fmt.Errorf("%w: invalid server id", domain.ErrValidation))
		return uuid.Nil, uuid.Nil, false
	}
	return userID, serverID, true
}
