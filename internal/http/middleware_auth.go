package http

import (
	"context"
	"net/http"
	"strings"

	"centsible/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const userIDKey contextKey = "user_id"

// userID extracts the authenticated user id from the context. Zero means
// the request never passed requireAuth.
func userID(ctx context.Context) int64 {
	id, _ := ctx.Value(userIDKey).(int64)
	return id
}

// requireAuth validates the bearer token and puts the user id on the
// request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			s.respondServiceError(w, r, auth.ErrMissingToken)
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			s.respondServiceError(w, r, auth.ErrInvalidToken)
			return
		}

		claims, err := s.tokens.Verify(parts[1])
		if err != nil {
			s.respondServiceError(w, r, err)
			return
		}
		id, err := claims.UserID()
		if err != nil {
			s.respondServiceError(w, r, auth.ErrInvalidToken)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
