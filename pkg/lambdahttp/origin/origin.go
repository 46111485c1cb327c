// Package origin models the JSON envelopes that Lambda HTTP triggers send and expect back.
// It covers Application Load Balancer target groups, API Gateway REST (payload v1),
// API Gateway HTTP APIs and Function URLs (payload v2) and API Gateway WebSocket APIs.
package origin

// Origin identifies the trigger that produced an invocation.
type Origin string

const (
	// ALB is an Application Load Balancer target group.
	ALB Origin = "alb"
	// APIGatewayV1 is an API Gateway REST API using the v1 proxy payload.
	APIGatewayV1 Origin = "apigw-v1"
	// APIGatewayV2 is an API Gateway HTTP API or a Lambda Function URL (payload v2).
	APIGatewayV2 Origin = "apigw-v2"
	// WebSocket is an API Gateway WebSocket API.
	WebSocket Origin = "websocket"
)

// All lists every supported origin.
var All = []Origin{ALB, APIGatewayV1, APIGatewayV2, WebSocket}

// String returns the string representation of the Origin.
func (o Origin) String() string {
	return string(o)
}

// Valid reports whether o is one of the supported origins.
func (o Origin) Valid() bool {
	switch o {
	case ALB, APIGatewayV1, APIGatewayV2, WebSocket:
		return true
	default:
		return false
	}
}

// MultiValue reports whether the origin's wire contract has multi-value headers and query parameters.
func (o Origin) MultiValue() bool {
	return o == ALB || o == APIGatewayV1
}

// ReplyMetadata is the part of a request envelope that is needed to build its reply.
type ReplyMetadata struct {
	// ConnectionID is the WebSocket connection that sent the message.
	ConnectionID string
	// RouteKey is the API Gateway route that matched (v2 and WebSocket).
	RouteKey string
	// Resource is the REST API resource template, e.g. /users/{id}.
	Resource string
	// Stage is the API Gateway stage name.
	Stage string
	// DomainName is the API Gateway domain the request was addressed to.
	DomainName string
	// MultiValue is set when the request declared multi-value headers or query parameters,
	// which makes the reply use multiValueHeaders too.
	MultiValue bool
}
