package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// AuthMiddleware checks a static Bearer token. WebSocket clients that cannot
// set headers may pass the token as the "token" query parameter.
type AuthMiddleware struct {
	token string
}

// NewAuthMiddleware creates a new AuthMiddleware. An empty token disables
// authentication.
func NewAuthMiddleware(token string) *AuthMiddleware {
	return &AuthMiddleware{token: strings.TrimSpace(token)}
}

// Authenticate rejects requests without the configured token.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	if m.token == "" {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			http.Error(w, "missing authorization header", http.StatusUnauthorized)
			return
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(m.token)) != 1 {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		token := r.URL.Query().Get("token")
		return token, token != ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
