package lambdahttp

import (
	"context"
	"encoding/json"
	"net/http"
)

// Response is the canonical, trigger-agnostic HTTP response.
// A zero StatusCode is sent as 200.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Responder is anything that can render itself into a Response. Rendering happens after
// the handler returns, so a Responder may defer expensive body construction.
type Responder interface {
	Respond(ctx context.Context) (*Response, error)
}

// NewResponse returns a Response with the given status and body and empty headers.
func NewResponse(status int, body []byte) *Response {
	return &Response{StatusCode: status, Header: make(http.Header), Body: body}
}

// Respond implements Responder.
func (r *Response) Respond(context.Context) (*Response, error) {
	return r, nil
}

// ResponderFunc adapts a function to the Responder interface.
type ResponderFunc func(ctx context.Context) (*Response, error)

// Respond implements Responder.
func (f ResponderFunc) Respond(ctx context.Context) (*Response, error) {
	return f(ctx)
}

// Text responds 200 with a plain text body.
type Text string

// Respond implements Responder.
func (t Text) Respond(context.Context) (*Response, error) {
	resp := NewResponse(http.StatusOK, []byte(t))
	resp.Header.Set("Content-Type", "text/plain; charset=utf-8")
	return resp, nil
}

// Bytes responds 200 with an opaque binary body.
type Bytes []byte

// Respond implements Responder.
func (b Bytes) Respond(context.Context) (*Response, error) {
	resp := NewResponse(http.StatusOK, b)
	resp.Header.Set("Content-Type", "application/octet-stream")
	return resp, nil
}

type jsonResponder struct {
	value any
}

// JSON responds 200 with v encoded as JSON. Encoding happens when the response is rendered.
func JSON(v any) Responder {
	return jsonResponder{value: v}
}

func (j jsonResponder) Respond(context.Context) (*Response, error) {
	body, err := json.Marshal(j.value)
	if err != nil {
		return nil, err
	}

	resp := NewResponse(http.StatusOK, body)
	resp.Header.Set("Content-Type", contentTypeJSON)
	return resp, nil
}

type statusResponder struct {
	status int
	inner  Responder
}

// WithStatus renders inner and overrides its status code.
func WithStatus(status int, inner Responder) Responder {
	return statusResponder{status: status, inner: inner}
}

func (s statusResponder) Respond(ctx context.Context) (*Response, error) {
	resp, err := render(ctx, s.inner)
	if err != nil {
		return nil, err
	}
	resp.StatusCode = s.status
	return resp, nil
}

// Redirect responds with status and a Location header.
func Redirect(status int, location string) Responder {
	resp := NewResponse(status, nil)
	resp.Header.Set("Location", location)
	return resp
}

// render calls r, treating a nil Responder or a nil Response as an empty 200.
func render(ctx context.Context, r Responder) (*Response, error) {
	if r == nil {
		return NewResponse(http.StatusOK, nil), nil
	}

	resp, err := r.Respond(ctx)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return NewResponse(http.StatusOK, nil), nil
	}
	if resp.Header == nil {
		resp.Header = make(http.Header)
	}

	return resp, nil
}
