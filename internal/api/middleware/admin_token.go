package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// AdminToken guards routes with a static bearer token. An empty token leaves
// the routes open, which is only meant for local development.
func AdminToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"success":false,"message":"unauthorized","code":"unauthorized"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
