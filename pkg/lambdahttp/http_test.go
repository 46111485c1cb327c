package lambdahttp

import (
	"io"
	"net/http"
	"testing"

	"github.com/heavens/lambdahttp/internal/testutil"
	"github.com/heavens/lambdahttp/pkg/lambdahttp/origin"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromHTTPHandler(t *testing.T) {
	var seen *http.Request
	var seenBody string
	var seenInv Invocation
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r
		body, _ := io.ReadAll(r.Body)
		seenBody = string(body)
		seenInv, _ = InvocationFromContext(r.Context())

		w.Header().Set("Content-Type", "application/json")
		w.Header().Add("Set-Cookie", "a=1")
		w.WriteHeader(http.StatusCreated)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	env := testutil.NewRESTEvent().
		WithMethod(http.MethodPost).
		WithPath("/items").
		WithHeader("Host", "api.example.com").
		WithQuery("dry_run", "1").
		WithBody(`{"name":"x"}`).
		Envelope()

	a := newTestAdapter(FromHTTPHandler(h))
	reply, err := a.Handle(testutil.LambdaContext(t, "req-7"), env)
	require.NoError(t, err)

	require.NotNil(t, seen)
	assert.Equal(t, http.MethodPost, seen.Method)
	assert.Equal(t, "/items", seen.URL.Path)
	assert.Equal(t, "1", seen.URL.Query().Get("dry_run"))
	assert.Equal(t, "api.example.com", seen.Host)
	assert.Equal(t, "/items?dry_run=1", seen.RequestURI)
	assert.Equal(t, "req-7", seen.Header.Get("Lambda-Runtime-Aws-Request-Id"))
	assert.Equal(t, `{"name":"x"}`, seenBody)
	assert.Equal(t, origin.APIGatewayV1, seenInv.Origin)

	rest, ok := reply.(*origin.RESTReply)
	require.True(t, ok)
	assert.Equal(t, http.StatusCreated, rest.StatusCode)
	assert.Equal(t, `{"ok":true}`, rest.Body)
	assert.Equal(t, "application/json", rest.Headers["Content-Type"])
	assert.Equal(t, "a=1", rest.Headers["Set-Cookie"])
}

func TestFromHTTPHandler_Defaults(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body>hi</body></html>"))
	})

	req, err := NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, err)

	responder, err := FromHTTPHandler(h).ServeLambda(t.Context(), req)
	require.NoError(t, err)
	resp, err := render(t.Context(), responder)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
}

func TestFromHTTPHandler_NoBody(t *testing.T) {
	h := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})

	req, err := NewRequest(http.MethodDelete, "/items/1", nil)
	require.NoError(t, err)

	responder, err := FromHTTPHandler(h).ServeLambda(t.Context(), req)
	require.NoError(t, err)
	resp, err := render(t.Context(), responder)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Content-Type"))
	assert.Empty(t, resp.Body)
}

func TestFromHTTPRequest(t *testing.T) {
	env := testutil.NewHTTPEvent().
		WithMethod(http.MethodPost).
		WithPath("/orders").
		WithHeader("Content-Type", "application/json").
		WithBody(`{"item":"book","quantity":1}`).
		Envelope()
	req, err := Normalize(env, LambdaContext{RequestID: "req-9"})
	require.NoError(t, err)

	httpReq, err := req.HTTPRequest(t.Context())
	require.NoError(t, err)

	back, err := FromHTTPRequest(httpReq)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, back.Method)
	assert.Equal(t, "/orders", back.URL.Path)
	assert.Equal(t, origin.APIGatewayV2, back.Origin())
	assert.Equal(t, "req-9", back.LambdaContext().RequestID)

	var got order
	ok, err := back.ValidPayload(&got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, order{Item: "book", Quantity: 1}, got)
}

func TestInvocationFromContext_Missing(t *testing.T) {
	_, ok := InvocationFromContext(t.Context())
	assert.False(t, ok)
}
