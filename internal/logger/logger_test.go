package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/heavens/lambdahttp/internal/constants"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestReplaceAttrForDev(t *testing.T) {
	tests := []struct {
		name string
		attr slog.Attr
		want string
	}{
		{
			name: "header map is sorted",
			attr: slog.Any("headers", map[string]string{"X-Tag": "b", "Accept": "*/*"}),
			want: "headers.Accept=*/* headers.X-Tag=b",
		},
		{
			name: "nested envelope context",
			attr: slog.Any("context", map[string]any{
				"origin": "http",
				"query":  map[string]string{"q": "a b"},
			}),
			want: "context.origin=http context.query.q=a b",
		},
		{
			name: "empty prefix",
			attr: slog.Any("", map[string]string{"stage": "live"}),
			want: "stage=live",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := replaceAttrForDev(nil, tt.attr)
			assert.Equal(t, tt.want, got.Value.String())
		})
	}

	t.Run("scalars pass through", func(t *testing.T) {
		attr := slog.Int("status", 502)
		assert.Equal(t, attr, replaceAttrForDev(nil, attr))

		list := slog.Any("cookies", []string{"a=1"})
		assert.Equal(t, list, replaceAttrForDev(nil, list))
	})
}

func TestInitialize(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	for _, env := range []constants.Environment{constants.Production, constants.Development} {
		t.Run(string(env), func(t *testing.T) {
			log := Initialize(env, slog.LevelWarn)

			require.NotNil(t, log)
			assert.Same(t, log, slog.Default())
			assert.False(t, log.Enabled(context.Background(), slog.LevelInfo))
			assert.True(t, log.Enabled(context.Background(), slog.LevelWarn))
		})
	}
}

func TestDeriveRequestLogger(t *testing.T) {
	lambdaCtx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{
		AwsRequestID: "lambda-req-456",
	})

	tests := []struct {
		name string
		ctx  context.Context
		want any
	}{
		{name: "local gateway id", ctx: WithRequestID(context.Background(), "local-req-1"), want: "local-req-1"},
		{name: "lambda request id", ctx: lambdaCtx, want: "lambda-req-456"},
		{name: "gateway id wins over lambda id", ctx: WithRequestID(lambdaCtx, "local-req-789"), want: "local-req-789"},
		{name: "no id", ctx: context.Background(), want: nil},
		{
			name: "empty lambda id",
			ctx:  lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{}),
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			DeriveRequestLogger(tt.ctx, jsonLogger(&buf)).Info("invoked")

			entry := decodeLine(t, &buf)
			assert.Equal(t, tt.want, entry["requestID"])
		})
	}

	t.Run("nil base falls back to default", func(t *testing.T) {
		assert.NotNil(t, DeriveRequestLogger(lambdaCtx, nil))
	})
}

func TestGetRequestID(t *testing.T) {
	lambdaCtx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{
		AwsRequestID: "lambda-req-456",
	})

	assert.Empty(t, GetRequestID(lambdaCtx), "lambda ids are read by DeriveRequestLogger only")
	assert.Equal(t, "conn-1", GetRequestID(WithRequestID(lambdaCtx, "conn-1")))
	assert.Equal(t, "conn-2", GetRequestID(WithRequestID(WithRequestID(lambdaCtx, "conn-1"), "conn-2")))
	assert.Empty(t, GetRequestID(context.WithValue(context.Background(), requestIDContextKey, 42)))
}

// The adapter logs the envelope origin followed by the deadline attributes as one map.
func TestSliceToMap_EnvelopeContext(t *testing.T) {
	t.Run("without deadline", func(t *testing.T) {
		got := SliceToMap(append([]any{"origin", "alb"}, GetDeadlineInfo(context.Background())...))

		assert.Equal(t, map[string]any{
			"origin":             "alb",
			"deadline":           "none",
			"deadline_remaining": "none",
		}, got)
	})

	t.Run("with lambda deadline", func(t *testing.T) {
		deadline := time.Now().Add(3 * time.Second).Truncate(time.Second)
		ctx, cancel := context.WithDeadline(context.Background(), deadline)
		defer cancel()

		got := SliceToMap(append([]any{"origin", "websocket"}, GetDeadlineInfo(ctx)...))

		require.Len(t, got, 3)
		assert.Equal(t, "websocket", got["origin"])
		assert.Equal(t, deadline.Format(time.RFC3339), got["deadline"])

		remaining, err := time.ParseDuration(got["deadline_remaining"].(string))
		require.NoError(t, err)
		assert.LessOrEqual(t, remaining, 3*time.Second)
	})

	t.Run("logged through a request logger", func(t *testing.T) {
		var buf bytes.Buffer
		ctx := WithRequestID(context.Background(), "req-7")
		args := append([]any{"origin", "rest"}, GetDeadlineInfo(ctx)...)

		DeriveRequestLogger(ctx, jsonLogger(&buf)).Debug("received envelope", "context", SliceToMap(args))

		entry := decodeLine(t, &buf)
		assert.Equal(t, "req-7", entry["requestID"])
		assert.Equal(t, map[string]any{
			"origin":             "rest",
			"deadline":           "none",
			"deadline_remaining": "none",
		}, entry["context"])
	})
}

func TestSliceToMap_Malformed(t *testing.T) {
	tests := []struct {
		name string
		args []any
		want map[string]any
	}{
		{name: "nil", args: nil, want: map[string]any{}},
		{name: "dangling key", args: []any{"origin", "http", "endpoint"}, want: map[string]any{"origin": "http"}},
		{name: "non-string key", args: []any{7, "x", "stage", "live"}, want: map[string]any{"stage": "live"}},
		{name: "last value wins", args: []any{"stage", "a", "stage", "b"}, want: map[string]any{"stage": "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SliceToMap(tt.args))
		})
	}
}
