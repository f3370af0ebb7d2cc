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

type FriendHandler struct {
	friends *services.FriendService
}

func NewFriendHandler(friends *services.FriendService) *FriendHandler {
	return &FriendHandler{friends: friends}
}

func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, envelope{"success": false, "error": "unauthorized"})
		return
	}
	var req struct {
		ReceiverUserTag string `json:"receiver_user_tag"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	id, err := h.friends.SendRequest(r.Context(), userID, req.ReceiverUserTag)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, envelope{"request_id": id, "message": "Friend request sent successfully"})
}

func (h *FriendHandler) PendingRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, envelope{"success": false, "error": "unauthorized"})
		return
	}
	incoming, outgoing, err := h.friends.PendingRequests(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, envelope{"incoming": incoming, "outgoing": outgoing})
}

func (h *FriendHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.resolveRequest(w, r, h.friends.Accept, "Friend request accepted")
}

func (h *FriendHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.resolveRequest(w, r, h.friends.Reject, "Friend request rejected")
}

func (h *FriendHandler) resolveRequest(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, userID, requestID uuid.UUID) error,
	okMsg string,
) {
	userID, ok := currentUser(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, envelope{"success": false, "error": "unauthorized"})
		return
	}
	requestID, err := uuid.Parse(chi.URLParam(r, "requestID"))
	if err != nil {
		writeError(w, fmt.Errorf("%w: invalid request id", domain.ErrValidation))
		return
	}
	if err := fn(r.Context(), userID, requestID); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, envelope{"message": okMsg})
}

func (h *FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, envelope{"success": false, "error": "unauthorized"})
		return
	}
	friends, err := h.friends.Friends(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, envelope{"friends": friends})
}

func (h *FriendHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, envelope{"success": false, "error": "unauthorized"})
		return
	}
	friendID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, fmt.Errorf("%w: invalid user id", domain.ErrValidation))
		return
	}
	if err := h.friends.Remove(r.Context(), userID, friendID); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, envelope{"message": "Friend removed successfully"})
}

func (h *FriendHandler) CheckStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, envelope{"success": false, "error": "unauthorized"})
		return
	}
	otherID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, fmt.Errorf("%w: invalid user id", domain.ErrValidation))
		return
	}
	status, err := h.friends.CheckStatus(r.Context(), userID, otherID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, envelope{
		"is_friend":      status.IsFriend,
		"request_status": status.RequestStatus,
		"request_id":     status.RequestID,
	})
}
