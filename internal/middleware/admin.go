package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// AdminAuthMiddleware guards the admin API with a static bearer token.
type AdminAuthMiddleware struct {
	token  string
	logger *slog.Logger
}

// NewAdminAuthMiddleware creates the middleware. An empty token rejects every
// request; the admin API is never left open by accident.
func NewAdminAuthMiddleware(token string, logger *slog.Logger) *AdminAuthMiddleware {
	return &AdminAuthMiddleware{
		token:  token,
		logger: logger,
	}
}

// RequireToken returns middleware that rejects requests without
// "Authorization: Bearer <token>".
func (m *AdminAuthMiddleware) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		presented, ok := bearerToken(r)
		if !ok || m.token == "" || !secureCompare(presented, m.token) {
			m.logger.Warn("admin request rejected",
				"path", r.URL.Path,
				"method", r.Method,
				"ip", getClientIP(r),
				"has_token", ok,
				"request_id", RequestID(r.Context()),
			)
			w.Header().Set("WWW-Authenticate", `Bearer realm="samplebase"`)
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// writeJSONError matches the body shape of handler.ErrorResponse.
func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
