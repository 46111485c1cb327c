// Package lambdahttp lets one handler, written against a canonical HTTP request and
// response, serve every Lambda HTTP trigger: ALB target groups, API Gateway REST and
// HTTP APIs, Function URLs and API Gateway WebSocket APIs.
//
// The package parses the trigger envelope into a Request, calls the Handler, and shapes
// the Response back into the envelope the trigger expects:
//
//	func main() {
//		lambdahttp.Start(lambdahttp.HandlerFunc(func(ctx context.Context, req *lambdahttp.Request) (lambdahttp.Responder, error) {
//			name, ok := req.QueryStringParameters().First("name")
//			if !ok {
//				name = "stranger"
//			}
//			return lambdahttp.Text("hello " + name), nil
//		}))
//	}
package lambdahttp

import (
	"context"
	"maps"
	"net/http"
	"net/url"
	"time"

	"github.com/heavens/lambdahttp/pkg/lambdahttp/origin"

	"github.com/aws/aws-lambda-go/lambdacontext"
)

// LambdaContext is the execution context of an invocation, as handed over by the Lambda runtime.
type LambdaContext struct {
	RequestID          string
	Deadline           time.Time
	InvokedFunctionARN string
	FunctionName       string
	FunctionVersion    string
	MemoryLimitInMB    int
	LogGroupName       string
	LogStreamName      string
	Identity           lambdacontext.CognitoIdentity
}

// ExecutionContext reads the LambdaContext out of a runtime context.
// Fields the runtime did not provide are left zero.
func ExecutionContext(ctx context.Context) LambdaContext {
	lc := LambdaContext{
		FunctionName:    lambdacontext.FunctionName,
		FunctionVersion: lambdacontext.FunctionVersion,
		MemoryLimitInMB: lambdacontext.MemoryLimitInMB,
		LogGroupName:    lambdacontext.LogGroupName,
		LogStreamName:   lambdacontext.LogStreamName,
	}
	if deadline, ok := ctx.Deadline(); ok {
		lc.Deadline = deadline
	}
	if rc, ok := lambdacontext.FromContext(ctx); ok {
		lc.RequestID = rc.AwsRequestID
		lc.InvokedFunctionARN = rc.InvokedFunctionArn
		lc.Identity = rc.Identity
	}

	return lc
}

// Invocation is the context attached to a Request when it is normalized.
// It records where the request came from and what the reply needs.
type Invocation struct {
	Origin origin.Origin
	Lambda LambdaContext
	Reply  origin.ReplyMetadata

	pathParameters map[string]string
	stageVariables map[string]string
}

// Request is the canonical, trigger-agnostic HTTP request handed to a Handler.
type Request struct {
	Method string
	URL    *url.URL
	// Header keys are canonicalized; values keep the order in which the trigger sent them.
	Header http.Header
	Body   []byte

	invocation Invocation
}

// NewRequest builds a Request that did not come from a trigger, e.g. for handler tests.
// Its Invocation is empty.
func NewRequest(method, target string, body []byte) (*Request, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, err
	}
	if method == "" {
		method = http.MethodGet
	}

	return &Request{
		Method: method,
		URL:    u,
		Header: make(http.Header),
		Body:   body,
	}, nil
}

// Invocation returns a copy of the context attached at normalization time.
func (r *Request) Invocation() Invocation {
	inv := r.invocation
	inv.pathParameters = maps.Clone(inv.pathParameters)
	inv.stageVariables = maps.Clone(inv.stageVariables)
	return inv
}

// Origin returns the trigger the request came from.
func (r *Request) Origin() origin.Origin {
	return r.invocation.Origin
}

// LambdaContext returns the execution context captured at normalization time.
func (r *Request) LambdaContext() LambdaContext {
	return r.invocation.Lambda
}

// RequestURI returns the path and query, as in the request line.
func (r *Request) RequestURI() string {
	if r.URL == nil {
		return "/"
	}
	return r.URL.RequestURI()
}
