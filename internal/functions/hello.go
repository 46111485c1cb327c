// Package functions contains the example handlers shipped with lambdahttp.
package functions

import (
	"context"
	"fmt"
	"net/http"

	"github.com/heavens/lambdahttp/pkg/lambdahttp"
)

// Hello greets the first_name query parameter, whatever trigger delivered it.
func Hello(_ context.Context, req *lambdahttp.Request) (lambdahttp.Responder, error) {
	firstName, ok := req.QueryStringParameters().First("first_name")
	if !ok {
		return lambdahttp.WithStatus(http.StatusBadRequest, lambdahttp.Text("Empty first name")), nil
	}

	return lambdahttp.Text(fmt.Sprintf("Hello, %s!", firstName)), nil
}

// Echo replies with the request body and content type.
func Echo(_ context.Context, req *lambdahttp.Request) (lambdahttp.Responder, error) {
	resp := lambdahttp.NewResponse(http.StatusOK, req.Body)
	if contentType := req.Header.Get("Content-Type"); contentType != "" {
		resp.Header.Set("Content-Type", contentType)
	}

	return resp, nil
}

// Registry lists the example handlers by name.
var Registry = map[string]lambdahttp.HandlerFunc{
	"hello": Hello,
	"echo":  Echo,
}

// Lookup returns the example handler registered under name. The router is built on
// every call.
func Lookup(name string) (lambdahttp.Handler, bool) {
	if name == "router" {
		return NewRouter(nil), true
	}
	h, ok := Registry[name]
	return h, ok
}

// Names returns the names accepted by Lookup.
func Names() []string {
	return []string{"echo", "hello", "router"}
}
