package middleware

import (
	"net/http"
	"strings"
)

// StripAPIVersion rewrites /api/v<N>/... to /api/... before routing, so versioned and
// unversioned clients hit the same routes. It wraps the engine because gin matches
// routes before any engine middleware runs.
func StripAPIVersion(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p, ok := stripVersion(r.URL.Path); ok {
			r2 := r.Clone(r.Context())
			r2.URL.Path = p
			r2.URL.RawPath = ""
			next.ServeHTTP(w, r2)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func stripVersion(path string) (string, bool) {
	const prefix = "/api/v"
	if !strings.HasPrefix(path, prefix) {
		return path, false
	}
	rest := path[len(prefix):]
	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}
	if i == 0 {
		return path, false
	}
	if i == len(rest) {
		return "/api", true
	}
	if rest[i] != '/' {
		return path, false
	}
	return "/api" + rest[i:], true
}
