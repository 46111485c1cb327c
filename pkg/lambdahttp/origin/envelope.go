package origin

import (
	"encoding/base64"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
)

// Envelope is an incoming trigger payload. The set of implementations is closed:
// *ALBRequest, *RESTRequest, *HTTPRequest and *WebSocketRequest.
type Envelope interface {
	// Origin returns the trigger that produced the envelope.
	Origin() Origin
	// DecodedBody returns the raw body bytes, decoding base64 when the envelope says so.
	DecodedBody() ([]byte, error)
	// Metadata returns what the reply needs to know about this request.
	Metadata() ReplyMetadata

	envelope()
}

// ALBRequest is an Application Load Balancer target group event.
type ALBRequest struct {
	events.ALBTargetGroupRequest
}

// RESTRequest is an API Gateway REST API proxy event (payload format 1.0).
type RESTRequest struct {
	events.APIGatewayProxyRequest
}

// HTTPRequest is an API Gateway HTTP API or Function URL event (payload format 2.0).
type HTTPRequest struct {
	events.APIGatewayV2HTTPRequest
}

// WebSocketRequest is an API Gateway WebSocket API event.
type WebSocketRequest struct {
	events.APIGatewayWebsocketProxyRequest
}

func (*ALBRequest) envelope()       {}
func (*RESTRequest) envelope()      {}
func (*HTTPRequest) envelope()      {}
func (*WebSocketRequest) envelope() {}

// Origin implements Envelope.
func (*ALBRequest) Origin() Origin { return ALB }

// Origin implements Envelope.
func (*RESTRequest) Origin() Origin { return APIGatewayV1 }

// Origin implements Envelope.
func (*HTTPRequest) Origin() Origin { return APIGatewayV2 }

// Origin implements Envelope.
func (*WebSocketRequest) Origin() Origin { return WebSocket }

// DecodedBody implements Envelope.
func (e *ALBRequest) DecodedBody() ([]byte, error) {
	return decodeBody(ALB, e.Body, e.IsBase64Encoded)
}

// DecodedBody implements Envelope.
func (e *RESTRequest) DecodedBody() ([]byte, error) {
	return decodeBody(APIGatewayV1, e.Body, e.IsBase64Encoded)
}

// DecodedBody implements Envelope.
func (e *HTTPRequest) DecodedBody() ([]byte, error) {
	return decodeBody(APIGatewayV2, e.Body, e.IsBase64Encoded)
}

// DecodedBody implements Envelope.
func (e *WebSocketRequest) DecodedBody() ([]byte, error) {
	return decodeBody(WebSocket, e.Body, e.IsBase64Encoded)
}

// Metadata implements Envelope.
// ALB target groups send either headers or multiValueHeaders depending on the
// target group setting, and expect the reply in the same form.
func (e *ALBRequest) Metadata() ReplyMetadata {
	return ReplyMetadata{
		MultiValue: e.MultiValueHeaders != nil || e.MultiValueQueryStringParameters != nil,
	}
}

// Metadata implements Envelope.
func (e *RESTRequest) Metadata() ReplyMetadata {
	return ReplyMetadata{
		Resource:   e.Resource,
		Stage:      e.RequestContext.Stage,
		DomainName: e.RequestContext.DomainName,
		MultiValue: e.MultiValueHeaders != nil || e.MultiValueQueryStringParameters != nil,
	}
}

// Metadata implements Envelope.
func (e *HTTPRequest) Metadata() ReplyMetadata {
	return ReplyMetadata{
		RouteKey:   e.RequestContext.RouteKey,
		Stage:      e.RequestContext.Stage,
		DomainName: e.RequestContext.DomainName,
	}
}

// Metadata implements Envelope.
func (e *WebSocketRequest) Metadata() ReplyMetadata {
	return ReplyMetadata{
		ConnectionID: e.RequestContext.ConnectionID,
		RouteKey:     e.RequestContext.RouteKey,
		Resource:     e.Resource,
		Stage:        e.RequestContext.Stage,
		DomainName:   e.RequestContext.DomainName,
	}
}

func decodeBody(o Origin, body string, isBase64 bool) ([]byte, error) {
	if !isBase64 {
		return []byte(body), nil
	}

	decoded, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return nil, &ParseError{
			Origin: o,
			Field:  "body",
			Err:    fmt.Errorf("%w: %w", ErrInvalidBase64, err),
		}
	}

	return decoded, nil
}
