// Package logger sets up slog for lambdahttp and derives per-invocation loggers.
package logger

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
)

type requestIDKey struct{}

// requestIDContextKey carries ids assigned outside Lambda, such as the local gateway's.
var requestIDContextKey = requestIDKey{}

// GetRequestID returns the id stored by WithRequestID, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}

// WithRequestID returns a copy of ctx carrying requestID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

// invocationID prefers an id set with WithRequestID over the Lambda request id.
func invocationID(ctx context.Context) string {
	if id := GetRequestID(ctx); id != "" {
		return id
	}
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		return lc.AwsRequestID
	}
	return ""
}

// DeriveRequestLogger returns base with a requestID attribute when ctx identifies
// the invocation. A nil base means slog.Default().
func DeriveRequestLogger(ctx context.Context, base *slog.Logger) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	if id := invocationID(ctx); id != "" {
		return base.With("requestID", id)
	}
	return base
}

// GetDeadlineInfo returns deadline and deadline_remaining attributes, both "none"
// when ctx has no deadline.
func GetDeadlineInfo(ctx context.Context) []any {
	deadline, ok := ctx.Deadline()
	if !ok {
		return []any{"deadline", "none", "deadline_remaining", "none"}
	}
	return []any{
		"deadline", deadline.Format(time.RFC3339),
		"deadline_remaining", time.Until(deadline).String(),
	}
}

// SliceToMap pairs up alternating keys and values. Pairs with a non-string key and
// a trailing key without a value are dropped.
func SliceToMap(args []any) map[string]any {
	m := make(map[string]any, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		if key, ok := args[i].(string); ok {
			m[key] = args[i+1]
		}
	}
	return m
}
