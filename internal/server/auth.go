package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"clustering-service/internal/apierr"
)

// requireAPIToken generalizes the teacher's requireAdminAPI middleware
// (internal/server/middleware.go) from a single env-only admin key to
// §6's configurable API_TOKEN, accepted as either a bearer
// Authorization header or X-API-Token, and compared in constant time
// to avoid timing side-channels (an addition this expansion makes
// explicit over the original spec's "compared exactly").
//
// An absent-and-not-configured token means auth is disabled entirely,
// per §6: "absent-and-not-configured = allow".
func (s *Server) requireAPIToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.APIToken == "" {
			next.ServeHTTP(w, r)
			return
		}

		token := tokenFromRequest(r)
		if token == "" || !constantTimeEqual(token, s.config.APIToken) {
			s.respondError(w, apierr.Unauthorized("missing or invalid API token"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func tokenFromRequest(r *http.Request) string {
	if v := r.Header.Get("X-API-Token"); v != "" {
		return v
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
