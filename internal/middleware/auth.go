package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/kbadu/datashop/internal/auth"
	"github.com/kbadu/datashop/internal/model"
)

type contextKey string

const UserContextKey contextKey = "user"

// AuthMiddleware parses the bearer token and requires the admin role. The
// token is self-contained; the identity provider issuing it lives outside
// this service.
func AuthMiddleware(tm *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
			userID, role, err := tm.ParseToken(tokenStr)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			if role != auth.RoleAdmin {
				http.Error(w, "admin role required", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, model.User{ID: userID, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
