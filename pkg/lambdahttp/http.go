package lambdahttp

import (
	"bytes"
	"context"
	"io"
	"net/http"
)

type invocationContextKey struct{}

// InvocationFromContext returns the Invocation of a request bridged through FromHTTPHandler.
func InvocationFromContext(ctx context.Context) (Invocation, bool) {
	inv, ok := ctx.Value(invocationContextKey{}).(Invocation)
	return inv, ok
}

// HTTPRequest converts r into a server-side *http.Request whose context carries r's Invocation.
func (r *Request) HTTPRequest(ctx context.Context) (*http.Request, error) {
	ctx = context.WithValue(ctx, invocationContextKey{}, r.Invocation())

	target := "/"
	if r.URL != nil {
		target = r.URL.String()
	}

	httpReq, err := http.NewRequestWithContext(ctx, r.Method, target, bytes.NewReader(r.Body))
	if err != nil {
		return nil, err
	}

	httpReq.Header = r.Header.Clone()
	if httpReq.Header == nil {
		httpReq.Header = make(http.Header)
	}
	httpReq.Host = httpReq.URL.Host
	httpReq.RequestURI = r.RequestURI()
	if r.invocation.Lambda.RequestID != "" {
		httpReq.Header.Set("Lambda-Runtime-Aws-Request-Id", r.invocation.Lambda.RequestID)
	}

	return httpReq, nil
}

// FromHTTPRequest reads r back into a Request, keeping the Invocation that HTTPRequest
// attached to its context. It lets net/http handlers use Payload and the other extensions.
func FromHTTPRequest(r *http.Request) (*Request, error) {
	var body []byte
	if r.Body != nil {
		var err error
		if body, err = io.ReadAll(r.Body); err != nil {
			return nil, err
		}
	}

	inv, _ := InvocationFromContext(r.Context())
	u := *r.URL

	return &Request{
		Method:     r.Method,
		URL:        &u,
		Header:     r.Header.Clone(),
		Body:       body,
		invocation: inv,
	}, nil
}

// FromHTTPHandler serves canonical requests with a net/http handler, such as a chi router.
// The handler's output is buffered and becomes the Response.
func FromHTTPHandler(h http.Handler) Handler {
	return HandlerFunc(func(ctx context.Context, req *Request) (Responder, error) {
		httpReq, err := req.HTTPRequest(ctx)
		if err != nil {
			return nil, err
		}

		w := &responseWriter{header: make(http.Header)}
		h.ServeHTTP(w, httpReq)

		return w.response(), nil
	})
}

// responseWriter buffers what a net/http handler writes.
type responseWriter struct {
	buffer bytes.Buffer
	header http.Header
	status int
}

func (w *responseWriter) Header() http.Header {
	return w.header
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.WriteHeader(http.StatusOK)
	}
	return w.buffer.Write(b)
}

func (w *responseWriter) WriteHeader(statusCode int) {
	if w.status != 0 {
		return
	}
	w.status = statusCode
}

func (w *responseWriter) response() *Response {
	status := w.status
	if status == 0 {
		status = http.StatusOK
	}
	if w.header.Get("Content-Type") == "" && w.buffer.Len() > 0 {
		w.header.Set("Content-Type", http.DetectContentType(w.buffer.Bytes()))
	}

	return &Response{
		StatusCode: status,
		Header:     w.header,
		Body:       w.buffer.Bytes(),
	}
}
