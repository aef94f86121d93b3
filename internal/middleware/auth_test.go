package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kbadu/datashop/internal/auth"
	"github.com/kbadu/datashop/internal/model"
)

func TestAuthMiddleware(t *testing.T) {
	tm := auth.NewTokenManager("test-secret")
	adminToken, _ := tm.GenerateToken(1, auth.RoleAdmin)
	agentToken, _ := tm.GenerateToken(2, "agent")

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{
			name:           "no header",
			authHeader:     "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "invalid token",
			authHeader:     "Bearer invalidtoken",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "non-admin role",
			authHeader:     "Bearer " + agentToken,
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "ok",
			authHeader:     "Bearer " + adminToken,
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			rr := httptest.NewRecorder()
			mw := AuthMiddleware(tm)
			handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				user, ok := r.Context().Value(UserContextKey).(model.User)
				if !ok || user.Role != auth.RoleAdmin {
					t.Error("expected admin user in context")
				}
				w.WriteHeader(http.StatusOK)
			}))

			handler.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("expected %d, got %d", tt.expectedStatus, rr.Code)
			}
		})
	}
}
