package observability

import (
	"net"
	"net/http"
	"strings"
)

// RequestID returns the caller-supplied request id header, if any.
func RequestID(r *http.Request) string {
	return r.Header.Get("X-Request-Id")
}

// ClientIP resolves the originating client address, preferring the first
// X-Forwarded-For hop set by the edge proxy.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
