package server

import (
	"net/http"
	"strings"
)

// corsMiddleware permits the configured frontend origins with every method
// and header, and allows credentials, per spec.md §6. allowedOrigins is a
// comma-separated list, or "*" for any origin (in which case the literal
// request origin is echoed back rather than "*", since
// Access-Control-Allow-Credentials forbids the wildcard with credentials).
// A preflight's requested method and headers are echoed back as allowed.
func corsMiddleware(allowedOrigins string, next http.Handler) http.Handler {
	origins := map[string]bool{}
	wildcard := strings.TrimSpace(allowedOrigins) == "*"
	if !wildcard {
		for _, o := range strings.Split(allowedOrigins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins[o] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (wildcard || origins[origin]) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Vary", "Origin")
		}
		allowMethods := "GET, POST, DELETE, OPTIONS"
		if m := r.Header.Get("Access-Control-Request-Method"); m != "" {
			allowMethods = m
		}
		allowHeaders := "Content-Type, Authorization"
		if h := r.Header.Get("Access-Control-Request-Headers"); h != "" {
			allowHeaders = h
		}
		w.Header().Set("Access-Control-Allow-Methods", allowMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowHeaders)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
