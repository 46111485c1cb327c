package localgw

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/heavens/lambdahttp/internal/testutil"
	"github.com/heavens/lambdahttp/pkg/lambdahttp"
	"github.com/heavens/lambdahttp/pkg/lambdahttp/origin"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seen struct {
	Origin    string              `json:"origin"`
	Method    string              `json:"method"`
	Path      string              `json:"path"`
	Query     map[string][]string `json:"query"`
	Cookie    string              `json:"cookie"`
	Body      string              `json:"body"`
	RequestID string              `json:"request_id"`
}

func inspect(ctx context.Context, req *lambdahttp.Request) (lambdahttp.Responder, error) {
	resp, err := lambdahttp.JSON(seen{
		Origin:    req.Origin().String(),
		Method:    req.Method,
		Path:      req.URL.Path,
		Query:     req.QueryStringParameters().Values(),
		Cookie:    req.Header.Get("Cookie"),
		Body:      string(req.Body),
		RequestID: req.LambdaContext().RequestID,
	}).Respond(ctx)
	if err != nil {
		return nil, err
	}
	resp.Header.Add("Set-Cookie", "a=1")
	resp.Header.Add("Set-Cookie", "b=2")
	return resp, nil
}

func newTestServer(t *testing.T, h lambdahttp.Handler, opts Options) (*Server, *httptest.Server) {
	t.Helper()

	log := testutil.SilentLogger()
	srv, err := New(lambdahttp.NewAdapter(h, lambdahttp.WithLogger(log)), opts, log, prometheus.NewRegistry())
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	return srv, ts
}

func TestNew_RejectsWebSocketOrigin(t *testing.T) {
	_, err := New(nil, Options{Origin: origin.WebSocket}, nil, prometheus.NewRegistry())
	assert.Error(t, err)
}

func TestServer_HTTP(t *testing.T) {
	tests := []struct {
		name        string
		opts        Options
		wantCookies []string
	}{
		{
			name:        "ALB keeps the last header value",
			opts:        Options{Origin: origin.ALB},
			wantCookies: []string{"b=2"},
		},
		{
			name:        "ALB multi-value",
			opts:        Options{Origin: origin.ALB, MultiValue: true},
			wantCookies: []string{"a=1", "b=2"},
		},
		{
			name:        "REST multi-value",
			opts:        Options{Origin: origin.APIGatewayV1, MultiValue: true},
			wantCookies: []string{"a=1", "b=2"},
		},
		{
			name:        "HTTP API cookies",
			opts:        Options{Origin: origin.APIGatewayV2},
			wantCookies: []string{"a=1", "b=2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, ts := newTestServer(t, lambdahttp.HandlerFunc(inspect), tt.opts)

			req, err := http.NewRequest(http.MethodPost, ts.URL+"/things/1?tag=x&tag=y", strings.NewReader("payload"))
			require.NoError(t, err)
			req.AddCookie(&http.Cookie{Name: "session", Value: "abc"})

			resp, err := ts.Client().Do(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
			assert.Equal(t, tt.wantCookies, resp.Header.Values("Set-Cookie"))

			requestID := resp.Header.Get("X-Request-Id")
			assert.NotEmpty(t, requestID)

			var got seen
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
			assert.Equal(t, tt.opts.Origin.String(), got.Origin)
			assert.Equal(t, http.MethodPost, got.Method)
			assert.Equal(t, "/things/1", got.Path)
			assert.Equal(t, "session=abc", got.Cookie)
			assert.Equal(t, "payload", got.Body)
			assert.Equal(t, requestID, got.RequestID)
			if tt.opts.Origin == origin.ALB && !tt.opts.MultiValue {
				assert.Equal(t, []string{"y"}, got.Query["tag"])
			} else {
				assert.Equal(t, []string{"x", "y"}, got.Query["tag"])
			}

			assert.InDelta(t, 1, promtestutil.ToFloat64(
				srv.metrics.InvocationsTotal.WithLabelValues(tt.opts.Origin.String(), OutcomeSuccess),
			), 0)
		})
	}
}

func TestServer_BinaryBody(t *testing.T) {
	echo := lambdahttp.HandlerFunc(func(_ context.Context, req *lambdahttp.Request) (lambdahttp.Responder, error) {
		return lambdahttp.Bytes(req.Body), nil
	})
	_, ts := newTestServer(t, echo, Options{Origin: origin.APIGatewayV2})

	binary := []byte{0x00, 0xff, 0x10, 0x80}
	resp, err := ts.Client().Post(ts.URL+"/bin", "application/octet-stream", strings.NewReader(string(binary)))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, binary, body)
	assert.Equal(t, "application/octet-stream", resp.Header.Get("Content-Type"))
}

func TestServer_FunctionError(t *testing.T) {
	failing := lambdahttp.HandlerFunc(func(context.Context, *lambdahttp.Request) (lambdahttp.Responder, error) {
		return nil, errors.New("boom")
	})
	srv, ts := newTestServer(t, failing, Options{Origin: origin.ALB})

	resp, err := ts.Client().Get(ts.URL + "/")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "FUNCTION_ERROR", body["code"])
	assert.Equal(t, "boom", body["details"])

	assert.InDelta(t, 1, promtestutil.ToFloat64(srv.metrics.InvocationsTotal.WithLabelValues("alb", OutcomeError)), 0)
	assert.Equal(t, 1, promtestutil.CollectAndCount(srv.metrics.InvocationDuration))
}

type warmingHandler struct{}

func (warmingHandler) ServeLambda(context.Context, *lambdahttp.Request) (lambdahttp.Responder, error) {
	return lambdahttp.Text("ok"), nil
}

func (warmingHandler) Ready(context.Context) error {
	return errors.New("cache not loaded")
}

func TestServer_HealthNotReady(t *testing.T) {
	_, ts := newTestServer(t, warmingHandler{}, Options{Origin: origin.ALB})

	resp, err := ts.Client().Get(ts.URL + "/_health")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(body), "SERVICE_UNAVAILABLE")
	assert.Contains(t, string(body), "cache not loaded")
}

func TestServer_HealthAndMetrics(t *testing.T) {
	_, ts := newTestServer(t, lambdahttp.HandlerFunc(inspect), Options{Origin: origin.APIGatewayV2})

	resp, err := ts.Client().Get(ts.URL + "/_health")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok","origin":"apigw-v2"}`, string(body))

	resp, err = ts.Client().Get(ts.URL + "/anything")
	require.NoError(t, err)
	_ = resp.Body.Close()

	resp, err = ts.Client().Get(ts.URL + "/_metrics")
	require.NoError(t, err)
	body, err = io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), `lambdahttp_local_invocations_total{origin="apigw-v2",outcome="success"} 1`)
	assert.Contains(t, string(body), "lambdahttp_local_invocation_duration_seconds")
}

type wsRecorder struct {
	mu     sync.Mutex
	routes []string
	refuse bool
}

func (r *wsRecorder) ServeLambda(_ context.Context, req *lambdahttp.Request) (lambdahttp.Responder, error) {
	inv := req.Invocation()
	r.mu.Lock()
	r.routes = append(r.routes, inv.Reply.RouteKey)
	refuse := r.refuse
	r.mu.Unlock()

	switch inv.Reply.RouteKey {
	case RouteConnect:
		if refuse {
			return lambdahttp.WithStatus(http.StatusForbidden, lambdahttp.Text("go away")), nil
		}
		return nil, nil
	case RouteDefault:
		return lambdahttp.Text("echo: " + string(req.Body)), nil
	default:
		return nil, nil
	}
}

func (r *wsRecorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.routes...)
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/_ws"
}

func TestServer_WebSocket(t *testing.T) {
	rec := &wsRecorder{}
	_, ts := newTestServer(t, rec, Options{Origin: origin.APIGatewayV2})

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	require.NoError(t, err)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("ping")))
	_, message, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "echo: ping", string(message))

	require.NoError(t, conn.WriteMessage(
		websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	))
	_ = conn.Close()

	assert.Eventually(t, func() bool {
		routes := rec.seen()
		return len(routes) == 3 && routes[2] == RouteDisconnect
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{RouteConnect, RouteDefault, RouteDisconnect}, rec.seen())
}

func TestServer_WebSocketRefused(t *testing.T) {
	rec := &wsRecorder{refuse: true}
	_, ts := newTestServer(t, rec, Options{Origin: origin.APIGatewayV2})

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, []string{RouteConnect}, rec.seen())
}

func TestServer_Serve(t *testing.T) {
	srv, err := New(
		lambdahttp.NewAdapter(lambdahttp.HandlerFunc(inspect), lambdahttp.WithLogger(testutil.SilentLogger())),
		Options{Origin: origin.APIGatewayV2},
		testutil.SilentLogger(),
		prometheus.NewRegistry(),
	)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln, time.Second) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + ln.Addr().String() + "/_health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err = <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
