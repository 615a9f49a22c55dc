// Defines request context keys and helper functions for metadata access.

// Package reqctx carries per-request metadata through a context.
package reqctx

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/maruel/ksid"
)

type contextKey string

const (
	keyClientIP  contextKey = "clientIP"
	keyRequestID contextKey = "requestID"
	keySubject   contextKey = "subject"
)

// GetClientIP extracts the client IP from an HTTP request, preferring the
// leftmost X-Forwarded-For entry and then X-Real-IP.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return strings.Trim(r.RemoteAddr, "[]")
}

// WithClientIP adds the client IP to the context.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, keyClientIP, ip)
}

// ClientIP returns the client IP stored in the context.
func ClientIP(ctx context.Context) string {
	v, _ := ctx.Value(keyClientIP).(string)
	return v
}

// WithRequestID adds the request id to the context.
func WithRequestID(ctx context.Context, id ksid.ID) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

// RequestID returns the request id, or the zero id.
func RequestID(ctx context.Context) ksid.ID {
	v, _ := ctx.Value(keyRequestID).(ksid.ID)
	return v
}

// WithSubject adds the authenticated token subject to the context.
func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, keySubject, sub)
}

// Subject returns the authenticated token subject, if any.
func Subject(ctx context.Context) string {
	v, _ := ctx.Value(keySubject).(string)
	return v
}
