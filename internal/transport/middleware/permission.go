package middleware

import (
	"log/slog"
	"net/http"

	"github.com/dimasprabowo/procurement-management/internal/auth"
)

// RequireGrants checks that the authenticated user holds at least one of the
// named role grants. Grant names are the same api_name values the approval
// gate reads; routes reuse them for coarse endpoint protection.
func RequireGrants(grants ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.UserFromContext(r.Context())
			if !ok || user == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			hasGrant := false
			for _, g := range grants {
				if user.HasGrant(g) {
					hasGrant = true
					break
				}
			}

			if !hasGrant {
				slog.Warn("access denied: user lacks required grants",
					"user_id", user.ID,
					"required_grants", grants)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
