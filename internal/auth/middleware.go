package auth

import (
	"context"
	"net/http"
)

// contextKey is an unexported type for this package's context keys. A
// package-private key type means no other package can read or shadow the
// userID we store in the request context.
type contextKey string

const userIDKey contextKey = "userID"

// CookieName is the HttpOnly cookie carrying the session JWT.
const CookieName = "token"

// RequireAuth enforces authentication on protected routes.
//
// It reads the JWT from the session cookie, validates it, and stores the
// userID in the request context. A missing or invalid token ends the request
// with 401 before any handler runs. Every tracker route sits behind this —
// goals and tasks are always scoped to the authenticated user.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil {
				http.Error(w, `{"error":"unauthorized","message":"valid authentication required"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext retrieves the authenticated user's ID from the request
// context. Returns ("", false) when the request is anonymous.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok && userID != ""
}

// extractUserID pulls the JWT from the session cookie and validates it.
func extractUserID(r *http.Request, tokens *TokenService) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", err
	}
	return tokens.Validate(cookie.Value)
}
