package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gothyxan/storefront/internal/platform/httpx"
)

// AdminAuthenticator issues and verifies admin session tokens.
type AdminAuthenticator interface {
	Login(ctx context.Context, password string) (string, error)
	Verify(token string) error
}

// RequireAdmin rejects requests without a valid bearer token. The login
// endpoint itself is mounted outside this middleware.
func RequireAdmin(authn AdminAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if authn == nil {
				httpx.WriteError(r.Context(), w, httpx.NewError("auth_unavailable", "authentication is unavailable", http.StatusServiceUnavailable))
				return
			}
			token := bearerToken(r)
			if token == "" {
				httpx.WriteError(r.Context(), w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
				return
			}
			if err := authn.Verify(token); err != nil {
				httpx.WriteError(r.Context(), w, httpx.NewError("unauthenticated", "invalid or expired session", http.StatusUnauthorized))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
