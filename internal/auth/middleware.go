package auth

import (
	"net/http"
	"strings"

	"wallet-ledger-go/internal/models"
)

// ErrorWriter renders an authentication or authorization failure
type ErrorWriter func(w http.ResponseWriter, status int, message string)

// Middleware requires a valid bearer token and stores its principal in the
// request context.
func Middleware(tokens *TokenManager, writeError ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeError(w, http.StatusUnauthorized, "Access denied. No token provided")
				return
			}

			principal, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(models.WithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireRole rejects principals whose role is not in roles
func RequireRole(writeError ErrorWriter, roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := models.GetPrincipal(r.Context())
			if principal == nil {
				writeError(w, http.StatusUnauthorized, "Access denied. No token provided")
				return
			}
			if _, ok := allowed[principal.Role]; !ok {
				writeError(w, http.StatusForbidden, "Access denied. Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
