package lambdahttp

import (
	"net/http"
	"testing"

	"github.com/heavens/lambdahttp/internal/testutil"
	"github.com/heavens/lambdahttp/pkg/lambdahttp/origin"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multiHeaderResponse() *Response {
	resp := NewResponse(http.StatusCreated, []byte("created"))
	resp.Header.Add("Set-Cookie", "a=1")
	resp.Header.Add("Set-Cookie", "b=2")
	resp.Header.Set("Content-Type", "text/plain")
	return resp
}

func TestDenormalize_ALB(t *testing.T) {
	log, rec := testutil.CaptureLogger()

	reply, err := Denormalize(multiHeaderResponse(), Invocation{Origin: origin.ALB}, log)
	require.NoError(t, err)

	assert.Equal(t, &origin.ALBReply{
		StatusCode:        http.StatusCreated,
		StatusDescription: "201 Created",
		Headers:           map[string]string{"Set-Cookie": "b=2", "Content-Type": "text/plain"},
		Body:              "created",
	}, reply)

	entries := rec.Entries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, "clamped multi-value header", entries[0]["msg"])
	assert.Equal(t, "DEBUG", entries[0]["level"])
	ctx, ok := entries[0]["context"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Set-Cookie", ctx["header"])
	assert.InDelta(t, 1, ctx["dropped_values"], 0)
}

func TestDenormalize_ALBMultiValue(t *testing.T) {
	inv := Invocation{Origin: origin.ALB, Reply: origin.ReplyMetadata{MultiValue: true}}

	reply, err := Denormalize(multiHeaderResponse(), inv, testutil.SilentLogger())
	require.NoError(t, err)

	alb, ok := reply.(*origin.ALBReply)
	require.True(t, ok)
	assert.Nil(t, alb.Headers)
	assert.Equal(t, map[string][]string{
		"Set-Cookie":   {"a=1", "b=2"},
		"Content-Type": {"text/plain"},
	}, alb.MultiValueHeaders)
}

func TestDenormalize_REST(t *testing.T) {
	t.Run("single-value", func(t *testing.T) {
		reply, err := Denormalize(multiHeaderResponse(), Invocation{Origin: origin.APIGatewayV1}, testutil.SilentLogger())
		require.NoError(t, err)

		rest, ok := reply.(*origin.RESTReply)
		require.True(t, ok)
		assert.Equal(t, "b=2", rest.Headers["Set-Cookie"])
		assert.Nil(t, rest.MultiValueHeaders)
	})

	t.Run("multi-value", func(t *testing.T) {
		inv := Invocation{Origin: origin.APIGatewayV1, Reply: origin.ReplyMetadata{MultiValue: true}}
		reply, err := Denormalize(multiHeaderResponse(), inv, testutil.SilentLogger())
		require.NoError(t, err)

		rest, ok := reply.(*origin.RESTReply)
		require.True(t, ok)
		assert.Equal(t, []string{"a=1", "b=2"}, rest.MultiValueHeaders["Set-Cookie"])
		assert.Nil(t, rest.Headers)
	})
}

func TestDenormalize_HTTPCookies(t *testing.T) {
	resp := multiHeaderResponse()

	reply, err := Denormalize(resp, Invocation{Origin: origin.APIGatewayV2}, testutil.SilentLogger())
	require.NoError(t, err)

	assert.Equal(t, &origin.HTTPReply{
		StatusCode: http.StatusCreated,
		Headers:    map[string]string{"Content-Type": "text/plain"},
		Cookies:    []string{"a=1", "b=2"},
		Body:       "created",
	}, reply)
	assert.Len(t, resp.Header.Values("Set-Cookie"), 2, "response headers must not be modified")
}

func TestDenormalize_WebSocket(t *testing.T) {
	inv := Invocation{Origin: origin.WebSocket, Reply: origin.ReplyMetadata{
		ConnectionID: "conn-1",
		DomainName:   "abc.execute-api.us-east-1.amazonaws.com",
		Stage:        "prod",
	}}

	reply, err := Denormalize(NewResponse(http.StatusOK, []byte("pong")), inv, testutil.SilentLogger())
	require.NoError(t, err)

	assert.Equal(t, &origin.WebSocketReply{
		StatusCode:   http.StatusOK,
		Body:         "pong",
		ConnectionID: "conn-1",
		DomainName:   "abc.execute-api.us-east-1.amazonaws.com",
		Stage:        "prod",
	}, reply)
}

func TestDenormalize_BinaryBody(t *testing.T) {
	resp := NewResponse(http.StatusOK, []byte{0xff, 0xd8, 0xff})

	reply, err := Denormalize(resp, Invocation{Origin: origin.APIGatewayV2}, testutil.SilentLogger())
	require.NoError(t, err)

	v2, ok := reply.(*origin.HTTPReply)
	require.True(t, ok)
	assert.True(t, v2.IsBase64Encoded)
	assert.Equal(t, "/9j/", v2.Body)

	decoded, err := reply.Decode()
	require.NoError(t, err)
	assert.Equal(t, resp.Body, decoded.Body)
}

func TestDenormalize_Defaults(t *testing.T) {
	t.Run("nil response", func(t *testing.T) {
		reply, err := Denormalize(nil, Invocation{Origin: origin.APIGatewayV1}, nil)
		require.NoError(t, err)
		assert.Equal(t, &origin.RESTReply{StatusCode: http.StatusOK}, reply)
	})

	t.Run("zero status", func(t *testing.T) {
		reply, err := Denormalize(&Response{}, Invocation{Origin: origin.ALB}, nil)
		require.NoError(t, err)
		assert.Equal(t, &origin.ALBReply{StatusCode: http.StatusOK, StatusDescription: "200 OK"}, reply)
	})

	t.Run("unknown status text", func(t *testing.T) {
		reply, err := Denormalize(NewResponse(599, nil), Invocation{Origin: origin.ALB}, nil)
		require.NoError(t, err)
		assert.Equal(t, "599", reply.(*origin.ALBReply).StatusDescription)
	})
}

func TestDenormalize_UnknownOrigin(t *testing.T) {
	_, err := Denormalize(NewResponse(http.StatusOK, nil), Invocation{}, nil)
	assert.ErrorIs(t, err, ErrUnknownOrigin)
}
