package origin

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
)

// Reply is an outgoing trigger payload. The set of implementations is closed and mirrors
// Envelope: *ALBReply, *RESTReply, *HTTPReply and *WebSocketReply.
type Reply interface {
	// Origin returns the trigger the reply is shaped for.
	Origin() Origin
	// Decode flattens the reply back into status, headers and raw body bytes.
	Decode() (*Decoded, error)

	reply()
}

// Decoded is a reply envelope expressed in plain HTTP terms.
type Decoded struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// ALBReply is the response an ALB target group expects.
type ALBReply struct {
	StatusCode        int                 `json:"statusCode"`
	StatusDescription string              `json:"statusDescription"`
	Headers           map[string]string   `json:"headers,omitempty"`
	MultiValueHeaders map[string][]string `json:"multiValueHeaders,omitempty"`
	Body              string              `json:"body"`
	IsBase64Encoded   bool                `json:"isBase64Encoded"`
}

// RESTReply is the response an API Gateway REST API proxy integration expects.
type RESTReply struct {
	StatusCode        int                 `json:"statusCode"`
	Headers           map[string]string   `json:"headers,omitempty"`
	MultiValueHeaders map[string][]string `json:"multiValueHeaders,omitempty"`
	Body              string              `json:"body"`
	IsBase64Encoded   bool                `json:"isBase64Encoded"`
}

// HTTPReply is the response an API Gateway HTTP API or Function URL expects.
type HTTPReply struct {
	StatusCode      int               `json:"statusCode"`
	Headers         map[string]string `json:"headers,omitempty"`
	Cookies         []string          `json:"cookies,omitempty"`
	Body            string            `json:"body"`
	IsBase64Encoded bool              `json:"isBase64Encoded"`
}

// WebSocketReply is the route response of an API Gateway WebSocket integration.
// Fields tagged `json:"-"` are not part of the wire format; they address pushes
// through the API Gateway Management API.
type WebSocketReply struct {
	StatusCode      int               `json:"statusCode"`
	Headers         map[string]string `json:"headers,omitempty"`
	Body            string            `json:"body"`
	IsBase64Encoded bool              `json:"isBase64Encoded"`
	ConnectionID    string            `json:"-"`
	DomainName      string            `json:"-"`
	Stage           string            `json:"-"`
}

func (*ALBReply) reply()       {}
func (*RESTReply) reply()      {}
func (*HTTPReply) reply()      {}
func (*WebSocketReply) reply() {}

// Origin implements Reply.
func (*ALBReply) Origin() Origin { return ALB }

// Origin implements Reply.
func (*RESTReply) Origin() Origin { return APIGatewayV1 }

// Origin implements Reply.
func (*HTTPReply) Origin() Origin { return APIGatewayV2 }

// Origin implements Reply.
func (*WebSocketReply) Origin() Origin { return WebSocket }

// Decode implements Reply.
func (r *ALBReply) Decode() (*Decoded, error) {
	return decode(ALB, r.StatusCode, r.Headers, r.MultiValueHeaders, nil, r.Body, r.IsBase64Encoded)
}

// Decode implements Reply.
func (r *RESTReply) Decode() (*Decoded, error) {
	return decode(APIGatewayV1, r.StatusCode, r.Headers, r.MultiValueHeaders, nil, r.Body, r.IsBase64Encoded)
}

// Decode implements Reply.
func (r *HTTPReply) Decode() (*Decoded, error) {
	return decode(APIGatewayV2, r.StatusCode, r.Headers, nil, r.Cookies, r.Body, r.IsBase64Encoded)
}

// Decode implements Reply.
func (r *WebSocketReply) Decode() (*Decoded, error) {
	return decode(WebSocket, r.StatusCode, r.Headers, nil, nil, r.Body, r.IsBase64Encoded)
}

// NewReply returns an empty reply for o. It panics on an unsupported origin.
func NewReply(o Origin) Reply {
	switch o {
	case ALB:
		return &ALBReply{}
	case APIGatewayV1:
		return &RESTReply{}
	case APIGatewayV2:
		return &HTTPReply{}
	case WebSocket:
		return &WebSocketReply{}
	default:
		panic(fmt.Sprintf("origin: unsupported origin %q", o))
	}
}

// ParseReply decodes a raw reply payload shaped for o.
func ParseReply(o Origin, payload []byte) (Reply, error) {
	if !o.Valid() {
		return nil, &ParseError{Origin: o, Err: ErrUnknownShape}
	}

	reply := NewReply(o)
	if err := json.Unmarshal(payload, reply); err != nil {
		return nil, &ParseError{Origin: o, Err: fmt.Errorf("%w: %w", ErrInvalidJSON, err)}
	}

	return reply, nil
}

func decode(
	o Origin,
	status int,
	single map[string]string,
	multi map[string][]string,
	cookies []string,
	body string,
	isBase64 bool,
) (*Decoded, error) {
	header := make(http.Header, len(single)+len(multi))
	for key, value := range single {
		header.Set(key, value)
	}
	// multiValueHeaders take precedence, as API Gateway merges them over headers
	for key, values := range multi {
		header.Del(key)
		for _, value := range values {
			header.Add(key, value)
		}
	}
	for _, cookie := range cookies {
		header.Add("Set-Cookie", cookie)
	}

	raw := []byte(body)
	if isBase64 {
		var err error
		raw, err = base64.StdEncoding.DecodeString(body)
		if err != nil {
			return nil, fmt.Errorf("decode %s reply body: %w", o, err)
		}
	}

	return &Decoded{StatusCode: status, Header: header, Body: raw}, nil
}
