package testutil

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strings"
	"testing"

	"github.com/heavens/lambdahttp/pkg/lambdahttp/origin"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"
)

type pair struct {
	key   string
	value string
}

// EventBuilder provides a fluent interface for building trigger envelopes the way
// each trigger would send them.
type EventBuilder struct {
	origin         origin.Origin
	method         string
	path           string
	resource       string
	routeKey       string
	headers        []pair
	query          []pair
	cookies        []string
	body           string
	isBase64       bool
	multiValue     bool
	pathParameters map[string]string
	stageVariables map[string]string
	requestID      string
	stage          string
	domainName     string
	connectionID   string
	eventType      string
}

func newEventBuilder(o origin.Origin) *EventBuilder {
	return &EventBuilder{
		origin:     o,
		method:     "GET",
		path:       "/",
		requestID:  "req-test-123",
		stage:      "test",
		domainName: "abc123.execute-api.us-east-1.amazonaws.com",
	}
}

// NewALBEvent starts an ALB target group event.
func NewALBEvent() *EventBuilder {
	return newEventBuilder(origin.ALB)
}

// NewRESTEvent starts an API Gateway REST API (v1) event.
func NewRESTEvent() *EventBuilder {
	return newEventBuilder(origin.APIGatewayV1)
}

// NewHTTPEvent starts an API Gateway HTTP API (v2) event.
func NewHTTPEvent() *EventBuilder {
	return newEventBuilder(origin.APIGatewayV2)
}

// NewWebSocketEvent starts an API Gateway WebSocket MESSAGE event on the $default route.
func NewWebSocketEvent() *EventBuilder {
	b := newEventBuilder(origin.WebSocket)
	b.method = ""
	b.path = ""
	b.routeKey = "$default"
	b.connectionID = "conn-test-123"
	b.eventType = "MESSAGE"
	return b
}

// NewEvent starts an event for o.
func NewEvent(o origin.Origin) *EventBuilder {
	if o == origin.WebSocket {
		return NewWebSocketEvent()
	}
	return newEventBuilder(o)
}

// WithMethod sets the HTTP method.
func (b *EventBuilder) WithMethod(method string) *EventBuilder {
	b.method = method
	return b
}

// WithPath sets the request path as the client sent it.
func (b *EventBuilder) WithPath(path string) *EventBuilder {
	b.path = path
	return b
}

// WithResource sets the REST API resource template.
func (b *EventBuilder) WithResource(resource string) *EventBuilder {
	b.resource = resource
	return b
}

// WithRouteKey sets the v2 or WebSocket route key.
func (b *EventBuilder) WithRouteKey(routeKey string) *EventBuilder {
	b.routeKey = routeKey
	return b
}

// WithHeader appends a header value; repeat the call for repeated headers.
func (b *EventBuilder) WithHeader(key, value string) *EventBuilder {
	b.headers = append(b.headers, pair{key, value})
	return b
}

// WithQuery appends a decoded query parameter; repeat the call for repeated keys.
func (b *EventBuilder) WithQuery(key, value string) *EventBuilder {
	b.query = append(b.query, pair{key, value})
	return b
}

// WithCookie appends a request cookie ("name=value").
func (b *EventBuilder) WithCookie(cookie string) *EventBuilder {
	b.cookies = append(b.cookies, cookie)
	return b
}

// WithBody sets a text body.
func (b *EventBuilder) WithBody(body string) *EventBuilder {
	b.body = body
	b.isBase64 = false
	return b
}

// WithBinaryBody sets a body that the trigger delivers base64 encoded.
func (b *EventBuilder) WithBinaryBody(body []byte) *EventBuilder {
	b.body = base64.StdEncoding.EncodeToString(body)
	b.isBase64 = true
	return b
}

// WithRawBody sets the body field and its base64 flag verbatim.
func (b *EventBuilder) WithRawBody(body string, isBase64 bool) *EventBuilder {
	b.body = body
	b.isBase64 = isBase64
	return b
}

// MultiValue makes ALB and REST events carry multi-value headers and query parameters.
func (b *EventBuilder) MultiValue() *EventBuilder {
	b.multiValue = true
	return b
}

// WithPathParameter sets a path parameter.
func (b *EventBuilder) WithPathParameter(key, value string) *EventBuilder {
	if b.pathParameters == nil {
		b.pathParameters = map[string]string{}
	}
	b.pathParameters[key] = value
	return b
}

// WithStageVariable sets a stage variable.
func (b *EventBuilder) WithStageVariable(key, value string) *EventBuilder {
	if b.stageVariables == nil {
		b.stageVariables = map[string]string{}
	}
	b.stageVariables[key] = value
	return b
}

// WithRequestID sets the API Gateway request id.
func (b *EventBuilder) WithRequestID(id string) *EventBuilder {
	b.requestID = id
	return b
}

// WithStage sets the API Gateway stage.
func (b *EventBuilder) WithStage(stage string) *EventBuilder {
	b.stage = stage
	return b
}

// WithDomainName sets the API Gateway domain name.
func (b *EventBuilder) WithDomainName(domainName string) *EventBuilder {
	b.domainName = domainName
	return b
}

// WithConnectionID sets the WebSocket connection id.
func (b *EventBuilder) WithConnectionID(id string) *EventBuilder {
	b.connectionID = id
	return b
}

// WithEventType sets the WebSocket event type (CONNECT, MESSAGE or DISCONNECT).
func (b *EventBuilder) WithEventType(eventType string) *EventBuilder {
	b.eventType = eventType
	return b
}

// Envelope returns the constructed envelope.
func (b *EventBuilder) Envelope() origin.Envelope {
	switch b.origin {
	case origin.ALB:
		return &origin.ALBRequest{ALBTargetGroupRequest: b.alb()}
	case origin.APIGatewayV1:
		return &origin.RESTRequest{APIGatewayProxyRequest: b.rest()}
	case origin.APIGatewayV2:
		return &origin.HTTPRequest{APIGatewayV2HTTPRequest: b.http()}
	default:
		return &origin.WebSocketRequest{APIGatewayWebsocketProxyRequest: b.webSocket()}
	}
}

// JSON returns the envelope encoded the way the Lambda runtime delivers it.
func (b *EventBuilder) JSON(t testing.TB) []byte {
	t.Helper()
	payload, err := json.Marshal(b.Envelope())
	require.NoError(t, err)
	return payload
}

func (b *EventBuilder) alb() events.ALBTargetGroupRequest {
	req := events.ALBTargetGroupRequest{
		HTTPMethod: b.method,
		Path:       b.path,
		RequestContext: events.ALBTargetGroupRequestContext{
			ELB: events.ELBContext{
				TargetGroupArn: "arn:aws:elasticloadbalancing:us-east-1:123456789012:targetgroup/test/abc",
			},
		},
		Body:            b.body,
		IsBase64Encoded: b.isBase64,
	}

	// ALB forwards the query string still percent-encoded.
	query := make([]pair, 0, len(b.query))
	for _, p := range b.query {
		query = append(query, pair{url.QueryEscape(p.key), url.QueryEscape(p.value)})
	}

	if b.multiValue {
		req.MultiValueHeaders = multi(b.headers, strings.ToLower)
		req.MultiValueQueryStringParameters = multi(query, nil)
	} else {
		req.Headers = last(b.headers, strings.ToLower)
		req.QueryStringParameters = last(query, nil)
	}

	return req
}

func (b *EventBuilder) rest() events.APIGatewayProxyRequest {
	req := events.APIGatewayProxyRequest{
		Resource:              b.resource,
		Path:                  b.path,
		HTTPMethod:            b.method,
		Headers:               last(b.headers, nil),
		QueryStringParameters: last(b.query, nil),
		PathParameters:        b.pathParameters,
		StageVariables:        b.stageVariables,
		RequestContext: events.APIGatewayProxyRequestContext{
			AccountID:    "123456789012",
			RequestID:    b.requestID,
			Stage:        b.stage,
			DomainName:   b.domainName,
			HTTPMethod:   b.method,
			Path:         "/" + b.stage + b.path,
			ResourcePath: b.resource,
		},
		Body:            b.body,
		IsBase64Encoded: b.isBase64,
	}
	if b.multiValue {
		req.MultiValueHeaders = multi(b.headers, nil)
		req.MultiValueQueryStringParameters = multi(b.query, nil)
	}

	return req
}

func (b *EventBuilder) http() events.APIGatewayV2HTTPRequest {
	routeKey := b.routeKey
	if routeKey == "" {
		routeKey = "$default"
	}

	rawQuery := make([]string, 0, len(b.query))
	for _, p := range b.query {
		rawQuery = append(rawQuery, url.QueryEscape(p.key)+"="+url.QueryEscape(p.value))
	}

	return events.APIGatewayV2HTTPRequest{
		Version:               "2.0",
		RouteKey:              routeKey,
		RawPath:               b.path,
		RawQueryString:        strings.Join(rawQuery, "&"),
		Cookies:               b.cookies,
		Headers:               joined(b.headers),
		QueryStringParameters: joined(b.query),
		PathParameters:        b.pathParameters,
		StageVariables:        b.stageVariables,
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			RouteKey:   routeKey,
			Stage:      b.stage,
			RequestID:  b.requestID,
			DomainName: b.domainName,
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method:   b.method,
				Path:     b.path,
				Protocol: "HTTP/1.1",
				SourceIP: "192.0.2.1",
			},
		},
		Body:            b.body,
		IsBase64Encoded: b.isBase64,
	}
}

func (b *EventBuilder) webSocket() events.APIGatewayWebsocketProxyRequest {
	return events.APIGatewayWebsocketProxyRequest{
		Resource:              b.resource,
		Path:                  b.path,
		HTTPMethod:            b.method,
		Headers:               last(b.headers, nil),
		MultiValueHeaders:     multi(b.headers, nil),
		QueryStringParameters: last(b.query, nil),
		RequestContext: events.APIGatewayWebsocketProxyRequestContext{
			Stage:        b.stage,
			RequestID:    b.requestID,
			ConnectionID: b.connectionID,
			DomainName:   b.domainName,
			EventType:    b.eventType,
			RouteKey:     b.routeKey,
		},
		Body:            b.body,
		IsBase64Encoded: b.isBase64,
	}
}

func last(pairs []pair, keyFn func(string) string) map[string]string {
	if len(pairs) == 0 {
		return nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		out[applyKey(p.key, keyFn)] = p.value
	}
	return out
}

func multi(pairs []pair, keyFn func(string) string) map[string][]string {
	if len(pairs) == 0 {
		return map[string][]string{}
	}
	out := make(map[string][]string, len(pairs))
	for _, p := range pairs {
		key := applyKey(p.key, keyFn)
		out[key] = append(out[key], p.value)
	}
	return out
}

// joined mimics payload v2, which lowercases header names and joins repeated values with commas.
func joined(pairs []pair) map[string]string {
	if len(pairs) == 0 {
		return nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		key := strings.ToLower(p.key)
		if existing, ok := out[key]; ok {
			out[key] = existing + "," + p.value
			continue
		}
		out[key] = p.value
	}
	return out
}

func applyKey(key string, keyFn func(string) string) string {
	if keyFn == nil {
		return key
	}
	return keyFn(key)
}
