package origin

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrAmbiguousShape is returned when a payload carries the markers of more than one envelope.
var ErrAmbiguousShape = errors.New("payload matches more than one trigger envelope")

// markers holds only the fields that tell envelopes apart.
type markers struct {
	HTTPMethod     *string `json:"httpMethod"`
	RequestContext *struct {
		ELB          json.RawMessage `json:"elb"`
		HTTP         json.RawMessage `json:"http"`
		ConnectionID *string         `json:"connectionId"`
	} `json:"requestContext"`
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

// Detect returns the origin of a raw payload by looking at which distinguishing fields
// are present: requestContext.elb (ALB), requestContext.connectionId (WebSocket),
// requestContext.http (HTTP API) and a top-level httpMethod (REST API).
func Detect(payload []byte) (Origin, error) {
	var p markers
	if err := json.Unmarshal(payload, &p); err != nil {
		return "", &ParseError{Err: fmt.Errorf("%w: %w", ErrInvalidJSON, err)}
	}

	var matches []Origin
	if rc := p.RequestContext; rc != nil {
		if present(rc.ELB) {
			matches = append(matches, ALB)
		}
		if rc.ConnectionID != nil && *rc.ConnectionID != "" {
			matches = append(matches, WebSocket)
		}
		if present(rc.HTTP) {
			matches = append(matches, APIGatewayV2)
		}
	}
	if len(matches) == 0 && p.HTTPMethod != nil && *p.HTTPMethod != "" {
		matches = append(matches, APIGatewayV1)
	}

	switch len(matches) {
	case 0:
		return "", &ParseError{Err: ErrUnknownShape}
	case 1:
		return matches[0], nil
	default:
		return "", &ParseError{Err: fmt.Errorf("%w: %v", ErrAmbiguousShape, matches)}
	}
}

// Parse detects the origin of payload and decodes it into the matching Envelope.
func Parse(payload []byte) (Envelope, error) {
	o, err := Detect(payload)
	if err != nil {
		return nil, err
	}

	env := New(o)
	if err = json.Unmarshal(payload, env); err != nil {
		return nil, &ParseError{Origin: o, Err: fmt.Errorf("%w: %w", ErrInvalidJSON, err)}
	}

	return env, nil
}

// New returns an empty envelope for o. It panics on an unsupported origin.
func New(o Origin) Envelope {
	switch o {
	case ALB:
		return &ALBRequest{}
	case APIGatewayV1:
		return &RESTRequest{}
	case APIGatewayV2:
		return &HTTPRequest{}
	case WebSocket:
		return &WebSocketRequest{}
	default:
		panic(fmt.Sprintf("origin: unsupported origin %q", o))
	}
}
