package http

import (
	"net/http"

	"github.com/campusdesk/auth-service/internal/ports"
)

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// me returns the claims of the authenticated caller. Dashboards use this to
// resolve the current account without decoding the token client side.
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value(contextKeyClaims).(ports.AuthClaims)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"account_id": claims.AccountID,
		"email":      claims.Email,
		"role":       claims.Role,
		"expires_at": claims.ExpiresAt,
	})
}
