package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/hostcard/pokerroom/internal/api/apierr"
	"github.com/hostcard/pokerroom/internal/services/registry"
)

type contextKey string

const sessionContextKey contextKey = "session"

// Auth creates authentication middleware. Every room route requires a
// session bound to some room; handlers check the room and host/seat
// scoping themselves.
func Auth(registryService *registry.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			session, err := registryService.ValidateSession(token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken extracts the session token from the request. The SSE
// endpoint cannot set headers from EventSource, so a query parameter is
// accepted as a fallback.
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	cookie, err := r.Cookie("session")
	if err == nil {
		return cookie.Value
	}

	return ""
}

// GetSession returns the session from the request context
func GetSession(ctx context.Context) *registry.Session {
	session, _ := ctx.Value(sessionContextKey).(*registry.Session)
	return session
}

// MustGetSession returns the session or panics
func MustGetSession(ctx context.Context) *registry.Session {
	session := GetSession(ctx)
	if session == nil {
		panic("no session in context - auth middleware not applied?")
	}
	return session
}
