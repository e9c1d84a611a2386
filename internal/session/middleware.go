package session

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKey struct{}

// FromContext returns the session attached by Middleware, if any.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok
}

// TokenFromRequest extracts the bearer token from the Authorization header
// or the X-Session-Token header.
func TokenFromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.Header.Get("X-Session-Token")
}

// Middleware rejects requests without a resolvable session with
// 401 {"error":"Unauthorized"} before any handler processing occurs.
func Middleware(mgr Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				unauthorized(w)
				return
			}
			s, err := mgr.Get(r.Context(), token)
			if err != nil {
				unauthorized(w)
				return
			}
			ctx := context.WithValue(r.Context(), contextKey{}, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
}
