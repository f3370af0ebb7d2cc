package handlers

import (
	"errors"
	"net/http"

	"github.com/SumukhChakkirala/chatApp/internal/core/domain"
	"github.com/SumukhChakkirala/chatApp/internal/core/services"
	"github.com/SumukhChakkirala/chatApp/pkg/middleware"
)

type AuthHandler struct {
	users  *services.UserService
	tokens *services.TokenService
}

func NewAuthHandler(users *services.UserService, tokens *services.TokenService) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	log := middleware.LoggerFrom(r.Context())
	var req struct {
		Username        string `json:"username"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	user, err := h.users.Register(r.Context(), req.Username, req.Password, req.ConfirmPassword)
	if err != nil {
		log.InfoContext(r.Context(), "auth handler - signup rejected", "username", req.Username, "err", err)
		writeError(w, err)
		return
	}
	token, err := h.tokens.GenerateToken(user.ID)
	if err != nil {
		log.ErrorContext(r.Context(), "auth handler - token generation failed", "user_id", user.ID.String(), "err", err)
		writeError(w, err)
		return
	}
	writeCreated(w, envelope{
		"token":    token,
		"user_id":  user.ID,
		"username": user.Username,
		"user_tag": user.UserTag,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := middleware.LoggerFrom(r.Context())
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	user, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		log.InfoContext(r.Context(), "auth handler - login rejected", "username", req.Username)
		if errors.Is(err, domain.ErrUnauthorized) {
			writeJSON(w, http.StatusUnauthorized, envelope{"success": false, "error": err.Error()})
			return
		}
		writeError(w, err)
		return
	}
	token, err := h.tokens.GenerateToken(user.ID)
	if err != nil {
		log.ErrorContext(r.Context(), "auth handler - token generation failed", "user_id", user.ID.String(), "err", err)
		writeError(w, err)
		return
	}
	writeOK(w, envelope{
		"token":    token,
		"user_id":  user.ID,
		"username": user.Username,
		"user_tag": user.UserTag,
	})
}
