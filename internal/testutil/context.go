// Package testutil provides shared testing utilities and helpers.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/stretchr/testify/require"
)

// testContextTimeout bounds contexts returned by LambdaContext.
const testContextTimeout = 5 * time.Second

// LambdaContext returns a context carrying the execution context the Lambda runtime
// would attach to an invocation.
func LambdaContext(t testing.TB, requestID string) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testContextTimeout)
	t.Cleanup(cancel)

	return lambdacontext.NewContext(ctx, &lambdacontext.LambdaContext{
		AwsRequestID:       requestID,
		InvokedFunctionArn: "arn:aws:lambda:us-east-1:123456789012:function:test",
	})
}

// SilentLogger creates a logger that discards all output.
func SilentLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// LogRecorder captures JSON log lines written at debug level and above.
type LogRecorder struct {
	buf bytes.Buffer
}

// CaptureLogger returns a logger writing into the returned recorder.
func CaptureLogger() (*slog.Logger, *LogRecorder) {
	rec := &LogRecorder{}
	log := slog.New(slog.NewJSONHandler(&rec.buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return log, rec
}

// Entries decodes every captured log line.
func (r *LogRecorder) Entries(t testing.TB) []map[string]any {
	t.Helper()

	var entries []map[string]any
	for line := range strings.Lines(r.buf.String()) {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}

	return entries
}
