package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/SumukhChakkirala/chatApp/internal/core/services"
)

type userIDKeyType struct{}

// UserIDKey carries the authenticated uuid.UUID through the request
// context.
var UserIDKey userIDKeyType

// Auth validates the bearer token and injects the user id. WebSocket
// upgrades from browsers cannot set headers, so a token query parameter
// is accepted as a fallback.
func Auth(tokens *services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				raw = r.URL.Query().Get("token")
			}
			if raw == "" {
				http.Error(w, "Authorization required", http.StatusUnauthorized)
				return
			}
			userID, err := tokens.ValidateToken(raw)
			if err != nil {
				http.Error(w, "Unauthorized: "+err.Error(), http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
