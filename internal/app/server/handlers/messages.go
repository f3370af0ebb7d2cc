package handlers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/SumukhChakkirala/chatApp/internal/core/domain"
	"github.com/SumukhChakkirala/chatApp/internal/core/services"
	"github.com/SumukhChakkirala/chatApp/pkg/middleware"
	"github.com/google/uuid"
)

const maxUploadBytes = 16 << 20 // 16 MiB

type MessageHandler struct {
	messages *services.MessageService
}

func NewMessageHandler(messages *services.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// Send accepts a multipart form: receiver_id, content, reply_to_id and an
// optional file attachment.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	log := middleware.LoggerFrom(r.Context())
	userID, ok := currentUser(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, envelope{"success": false, "error": "unauthorized"})
		return
	}
	// Bound the whole body; the slack covers the non-file form fields.
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, fmt.Errorf("%w: malformed form", domain.ErrValidation))
		return
	}

	receiverID, err := uuid.Parse(r.FormValue("receiver_id"))
	if err != nil {
		writeError(w, fmt.Errorf("%w: no recipient selected", domain.ErrValidation))
		return
	}
	in := services.SendDirectInput{
		ReceiverID: receiverID,
		Content:    r.FormValue("content"),
	}
	if raw := r.FormValue("reply_to_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, fmt.Errorf("%w: invalid reply reference", domain.ErrValidation))
			return
		}
		in.ReplyToID = &id
	}
	if file, header, err := r.FormFile("file"); err == nil {
		defer file.Close()
		// Read one byte past the limit so an oversized file is detected
		// and rejected rather than silently cut off.
		data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
		if err != nil {
			writeError(w, err)
			return
		}
		if len(data) > maxUploadBytes {
			writeError(w, fmt.Errorf("%w: attachment exceeds the %d MiB limit", domain.ErrValidation, maxUploadBytes>>20))
			return
		}
		in.Attachment = &services.Attachment{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		}
	}

	view, err := h.messages.SendDirect(r.Context(), userID, in)
	if err != nil {
		log.InfoContext(r.Context(), "message handler - send rejected", "user_id", userID.String(), "err", err)
		writeError(w, err)
		return
	}
	writeOK(w, envelope{"message": view})
}

// List returns the conversation with friend_id, optionally only messages
// after the RFC 3339 since timestamp.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, envelope{"success": false, "error": "unauthorized"})
		return
	}
	friendID, err := uuid.Parse(r.URL.Query().Get("friend_id"))
	if err != nil {
		writeError(w, fmt.Errorf("%w: friend id is required", domain.ErrValidation))
		return
	}
	var since *time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, fmt.Errorf("%w: invalid since timestamp", domain.ErrValidation))
			return
		}
		since = &t
	}
	views, err := h.messages.ListDirect(r.Context(), userID, friendID, since)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, envelope{"messages": views})
}
