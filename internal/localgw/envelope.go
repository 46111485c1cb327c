package localgw

import (
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/heavens/lambdahttp/pkg/lambdahttp/origin"

	"github.com/aws/aws-lambda-go/events"
)

// EnvelopeOptions controls how BuildEnvelope shapes an envelope.
type EnvelopeOptions struct {
	// Stage is the API Gateway stage name.
	Stage string
	// MultiValue makes ALB and REST envelopes carry multi-value headers and query parameters.
	MultiValue bool
	// RequestID is the API Gateway request id.
	RequestID string
	// Now is the request time; zero means time.Now.
	Now time.Time
}

// BuildEnvelope converts an HTTP request into the envelope trigger o would have sent.
func BuildEnvelope(o origin.Origin, r *http.Request, body []byte, opts EnvelopeOptions) (origin.Envelope, error) {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	encoded, isBase64 := encodeBody(body)

	switch o {
	case origin.ALB:
		return albEnvelope(r, encoded, isBase64, opts), nil
	case origin.APIGatewayV1:
		return restEnvelope(r, encoded, isBase64, opts), nil
	case origin.APIGatewayV2:
		return httpEnvelope(r, encoded, isBase64, opts), nil
	default:
		return nil, fmt.Errorf("cannot build a %q envelope from an HTTP request", o)
	}
}

func albEnvelope(r *http.Request, body string, isBase64 bool, opts EnvelopeOptions) *origin.ALBRequest {
	env := &origin.ALBRequest{ALBTargetGroupRequest: events.ALBTargetGroupRequest{
		HTTPMethod: r.Method,
		Path:       r.URL.EscapedPath(),
		RequestContext: events.ALBTargetGroupRequestContext{
			ELB: events.ELBContext{
				TargetGroupArn: "arn:aws:elasticloadbalancing:local:000000000000:targetgroup/lambdahttp-local/0000000000000000",
			},
		},
		Body:            body,
		IsBase64Encoded: isBase64,
	}}

	headers := forwardedHeaders(r)
	query := rawQuery(r.URL.RawQuery)
	if opts.MultiValue {
		env.MultiValueHeaders = lowerKeys(headers)
		env.MultiValueQueryStringParameters = query
	} else {
		env.Headers = lastValues(lowerKeys(headers))
		env.QueryStringParameters = lastValues(query)
	}

	return env
}

func restEnvelope(r *http.Request, body string, isBase64 bool, opts EnvelopeOptions) *origin.RESTRequest {
	headers := forwardedHeaders(r)
	query := r.URL.Query()

	env := &origin.RESTRequest{APIGatewayProxyRequest: events.APIGatewayProxyRequest{
		Resource:              "/{proxy+}",
		Path:                  r.URL.Path,
		HTTPMethod:            r.Method,
		Headers:               lastValues(headers),
		QueryStringParameters: lastValues(query),
		PathParameters:        map[string]string{"proxy": strings.TrimPrefix(r.URL.Path, "/")},
		RequestContext: events.APIGatewayProxyRequestContext{
			AccountID:        "000000000000",
			Stage:            opts.Stage,
			DomainName:       r.Host,
			RequestID:        opts.RequestID,
			Protocol:         r.Proto,
			Identity:         events.APIGatewayRequestIdentity{SourceIP: sourceIP(r), UserAgent: r.UserAgent()},
			ResourcePath:     "/{proxy+}",
			Path:             r.URL.Path,
			HTTPMethod:       r.Method,
			RequestTime:      opts.Now.UTC().Format("02/Jan/2006:15:04:05 -0700"),
			RequestTimeEpoch: opts.Now.UnixMilli(),
		},
		Body:            body,
		IsBase64Encoded: isBase64,
	}}
	if opts.MultiValue {
		env.MultiValueHeaders = headers
		env.MultiValueQueryStringParameters = query
	}

	return env
}

func httpEnvelope(r *http.Request, body string, isBase64 bool, opts EnvelopeOptions) *origin.HTTPRequest {
	headers := forwardedHeaders(r)
	var cookies []string
	for _, cookie := range r.Cookies() {
		cookies = append(cookies, cookie.String())
	}
	delete(headers, "Cookie")

	joined := make(map[string]string, len(headers))
	for key, values := range lowerKeys(headers) {
		joined[key] = strings.Join(values, ",")
	}
	query := make(map[string]string)
	for key, values := range r.URL.Query() {
		query[key] = strings.Join(values, ",")
	}

	return &origin.HTTPRequest{APIGatewayV2HTTPRequest: events.APIGatewayV2HTTPRequest{
		Version:               "2.0",
		RouteKey:              "$default",
		RawPath:               r.URL.EscapedPath(),
		RawQueryString:        r.URL.RawQuery,
		Cookies:               cookies,
		Headers:               joined,
		QueryStringParameters: query,
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			RouteKey:   "$default",
			AccountID:  "000000000000",
			Stage:      opts.Stage,
			RequestID:  opts.RequestID,
			DomainName: r.Host,
			Time:       opts.Now.UTC().Format("02/Jan/2006:15:04:05 -0700"),
			TimeEpoch:  opts.Now.UnixMilli(),
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method:    r.Method,
				Path:      r.URL.Path,
				Protocol:  r.Proto,
				SourceIP:  sourceIP(r),
				UserAgent: r.UserAgent(),
			},
		},
		Body:            body,
		IsBase64Encoded: isBase64,
	}}
}

// webSocketEnvelope builds a WebSocket event for a connection opened by handshake.
// As API Gateway does, headers and query parameters are only sent with CONNECT.
func webSocketEnvelope(
	eventType, routeKey, connectionID string,
	handshake *http.Request,
	body []byte,
	opts EnvelopeOptions,
) *origin.WebSocketRequest {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	encoded, isBase64 := encodeBody(body)

	env := &origin.WebSocketRequest{APIGatewayWebsocketProxyRequest: events.APIGatewayWebsocketProxyRequest{
		RequestContext: events.APIGatewayWebsocketProxyRequestContext{
			AccountID:        "000000000000",
			Stage:            opts.Stage,
			RequestID:        opts.RequestID,
			Identity:         events.APIGatewayRequestIdentity{SourceIP: sourceIP(handshake), UserAgent: handshake.UserAgent()},
			ConnectionID:     connectionID,
			DomainName:       handshake.Host,
			EventType:        eventType,
			MessageDirection: "IN",
			RequestTime:      opts.Now.UTC().Format("02/Jan/2006:15:04:05 -0700"),
			RequestTimeEpoch: opts.Now.UnixMilli(),
			RouteKey:         routeKey,
		},
		Body:            encoded,
		IsBase64Encoded: isBase64,
	}}

	if eventType == "CONNECT" {
		headers := forwardedHeaders(handshake)
		env.Headers = lastValues(headers)
		env.MultiValueHeaders = headers
		env.QueryStringParameters = lastValues(handshake.URL.Query())
		env.MultiValueQueryStringParameters = handshake.URL.Query()
	}

	return env
}

// forwardedHeaders returns the request headers plus those a load balancer adds.
func forwardedHeaders(r *http.Request) map[string][]string {
	headers := make(map[string][]string, len(r.Header)+3)
	for key, values := range r.Header {
		headers[key] = append([]string(nil), values...)
	}
	if r.Host != "" {
		headers["Host"] = []string{r.Host}
	}
	headers["X-Forwarded-Proto"] = []string{"http"}
	if ip := sourceIP(r); ip != "" {
		headers["X-Forwarded-For"] = []string{ip}
	}

	return headers
}

// rawQuery splits a query string without unescaping it, the way ALB forwards it.
func rawQuery(raw string) map[string][]string {
	query := make(map[string][]string)
	for part := range strings.SplitSeq(raw, "&") {
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, "=")
		query[key] = append(query[key], value)
	}

	return query
}

func lowerKeys(values map[string][]string) map[string][]string {
	out := make(map[string][]string, len(values))
	for key, vs := range values {
		lower := strings.ToLower(key)
		out[lower] = append(out[lower], vs...)
	}
	return out
}

func lastValues(values map[string][]string) map[string]string {
	out := make(map[string]string, len(values))
	for key, vs := range values {
		if len(vs) > 0 {
			out[key] = vs[len(vs)-1]
		}
	}
	return out
}

func sourceIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func encodeBody(body []byte) (string, bool) {
	if utf8.Valid(body) {
		return string(body), false
	}
	return base64.StdEncoding.EncodeToString(body), true
}
