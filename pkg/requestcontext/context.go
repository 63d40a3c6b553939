// Package requestcontext carries request-scoped values through a context so
// services and stores can read them without importing net/http.
//
// Middleware sets the values; tests set them directly:
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"
)

type key int

const (
	clientIPKey key = iota
	userAgentKey
	requestIDKey
	requestTimeKey
)

func stringValue(ctx context.Context, k key) string {
	s, _ := ctx.Value(k).(string)
	return s
}

// WithClientMetadata stores the caller's address and User-Agent.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey, clientIP)
	return context.WithValue(ctx, userAgentKey, userAgent)
}

// ClientIP returns the caller's address, or "" outside a request.
func ClientIP(ctx context.Context) string { return stringValue(ctx, clientIPKey) }

// UserAgent returns the caller's User-Agent, or "" outside a request.
func UserAgent(ctx context.Context) string { return stringValue(ctx, userAgentKey) }

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID returns the id the RequestID middleware assigned, or "".
func RequestID(ctx context.Context) string { return stringValue(ctx, requestIDKey) }

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey, t)
}

// Now returns the time captured when the request arrived. Outside a request
// (commands, tests that did not call WithTime) it is time.Now().
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey).(time.Time); ok {
		return t
	}
	return time.Now()
}
