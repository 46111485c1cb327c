package lambdahttp

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"unicode/utf8"

	"github.com/heavens/lambdahttp/pkg/lambdahttp/origin"
)

// ErrUnknownOrigin is returned by Denormalize for an Invocation without a supported origin,
// which only happens for requests that were not produced by Normalize.
var ErrUnknownOrigin = errors.New("invocation has no supported origin")

// Denormalize shapes resp into the reply envelope of the origin recorded in inv.
//
// Headers an origin cannot carry are clamped rather than rejected: without multi-value
// support every header keeps its last value. Bodies that are not valid UTF-8 are base64
// encoded. Clamps are logged on log at debug level.
func Denormalize(resp *Response, inv Invocation, log *slog.Logger) (origin.Reply, error) {
	if resp == nil {
		resp = NewResponse(http.StatusOK, nil)
	}
	if log == nil {
		log = slog.Default()
	}

	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	body, isBase64 := encodeBody(resp.Body)

	switch inv.Origin {
	case origin.ALB:
		reply := &origin.ALBReply{
			StatusCode:        status,
			StatusDescription: statusDescription(status),
			Body:              body,
			IsBase64Encoded:   isBase64,
		}
		if inv.Reply.MultiValue {
			reply.MultiValueHeaders = multiValueHeaders(resp.Header)
		} else {
			reply.Headers = collapseHeaders(resp.Header, inv.Origin, log)
		}
		return reply, nil
	case origin.APIGatewayV1:
		reply := &origin.RESTReply{
			StatusCode:      status,
			Body:            body,
			IsBase64Encoded: isBase64,
		}
		if inv.Reply.MultiValue {
			reply.MultiValueHeaders = multiValueHeaders(resp.Header)
		} else {
			reply.Headers = collapseHeaders(resp.Header, inv.Origin, log)
		}
		return reply, nil
	case origin.APIGatewayV2:
		header := resp.Header.Clone()
		cookies := header.Values("Set-Cookie")
		header.Del("Set-Cookie")
		return &origin.HTTPReply{
			StatusCode:      status,
			Headers:         collapseHeaders(header, inv.Origin, log),
			Cookies:         slices.Clone(cookies),
			Body:            body,
			IsBase64Encoded: isBase64,
		}, nil
	case origin.WebSocket:
		return &origin.WebSocketReply{
			StatusCode:      status,
			Headers:         collapseHeaders(resp.Header, inv.Origin, log),
			Body:            body,
			IsBase64Encoded: isBase64,
			ConnectionID:    inv.Reply.ConnectionID,
			DomainName:      inv.Reply.DomainName,
			Stage:           inv.Reply.Stage,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOrigin, inv.Origin)
	}
}

// encodeBody keeps valid UTF-8 as text and base64-encodes anything else.
func encodeBody(body []byte) (string, bool) {
	if utf8.Valid(body) {
		return string(body), false
	}
	return base64.StdEncoding.EncodeToString(body), true
}

func statusDescription(status int) string {
	if text := http.StatusText(status); text != "" {
		return fmt.Sprintf("%d %s", status, text)
	}
	return fmt.Sprintf("%d", status)
}

func multiValueHeaders(header http.Header) map[string][]string {
	if len(header) == 0 {
		return nil
	}

	out := make(map[string][]string, len(header))
	for key, values := range header {
		if len(values) > 0 {
			out[key] = slices.Clone(values)
		}
	}

	return out
}

// collapseHeaders keeps the last value of every header; the last write wins.
func collapseHeaders(header http.Header, o origin.Origin, log *slog.Logger) map[string]string {
	if len(header) == 0 {
		return nil
	}

	out := make(map[string]string, len(header))
	for key, values := range header {
		if len(values) == 0 {
			continue
		}
		out[key] = values[len(values)-1]
		if len(values) > 1 {
			log.Debug("clamped multi-value header", "context", map[string]any{
				"origin":         o.String(),
				"header":         key,
				"dropped_values": len(values) - 1,
			})
		}
	}

	return out
}
