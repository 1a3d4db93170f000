package middleware

import (
	"net/http"

	"github.com/edlund/sentinel/internal/api/response"
	"github.com/edlund/sentinel/internal/model"
)

// RequireRole returns middleware that checks the authenticated key's role
// ranks at or above min (viewer < analyst < admin).
func RequireRole(min string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := GetIdentity(r.Context())
			if identity == nil || !model.RoleAtLeast(identity.Role, min) {
				response.WriteError(w, http.StatusForbidden, "requires "+min+" role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
