package handlers

import (
	"net/http"

	"github.com/SumukhChakkirala/chatApp/internal/core/domain"
	"github.com/SumukhChakkirala/chatApp/internal/core/services"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Search matches username or user tag; an empty query is an empty result,
// not everyone.
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, envelope{"success": false, "error": "unauthorized"})
		return
	}
	found, err := h.users.Search(r.Context(), userID, r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	refs := make([]domain.UserRef, 0, len(found))
	for _, u := range found {
		refs = append(refs, domain.UserRef{ID: u.ID, Username: u.Username, UserTag: u.UserTag})
	}
	writeOK(w, envelope{"users": refs})
}
