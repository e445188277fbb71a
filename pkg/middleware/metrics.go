package middleware

import (
	"net/http"
	"strings"
	"time"

	"roombook/pkg/metrics"
)

// HTTPMetrics records request counts and latency per normalized route.
func HTTPMetrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrapResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			metrics.ObserveHTTP(routeLabel(r.URL.Path), r.Method, wrapped.statusCode, time.Since(start))
		})
	}
}

// routeLabel replaces id-like path segments so the label set stays bounded.
func routeLabel(path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		if isObjectIDHex(segment) {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}

func isObjectIDHex(s string) bool {
	if len(s) != 24 {
		return false
	}
	for _, c := range s {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}
