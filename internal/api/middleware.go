package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

type contextKey string

const userIDKey contextKey = "user_id"

func bearerToken(r *http.Request) (string, bool) {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, prefix) {
		return "", false
	}
	return h[len(prefix):], true
}

// AuthMiddleware returns middleware that validates the Bearer token.
// If token is empty, any request carrying a Bearer token is accepted.
func AuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			value, ok := bearerToken(r)
			if !ok || (token != "" && value != token) {
				Unauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AdminMiddleware guards admin routes. Without a configured token every
// request is refused.
func AdminMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				Forbidden(w, "admin API disabled")
				return
			}
			value, ok := bearerToken(r)
			if !ok {
				Unauthorized(w)
				return
			}
			if value != token {
				Forbidden(w, "admin token required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDMiddleware parses the user_id chi URL parameter and stores it in the
// request context.
func UserIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "user_id")
		if raw == "" {
			BadRequest(w, "user_id is required")
			return
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			BadRequest(w, "user_id must be a positive integer")
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID retrieves the user id stored in the context by UserIDMiddleware.
func GetUserID(ctx context.Context) int64 {
	v, _ := ctx.Value(userIDKey).(int64)
	return v
}
