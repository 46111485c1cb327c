package errors

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/heavens/lambdahttp/internal/constants"
	"github.com/heavens/lambdahttp/pkg/lambdahttp"
)

// ErrorBody is the JSON body of an error response.
type ErrorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// Response renders err as a JSON error response with the status of the AppError it wraps,
// or 500 for any other error.
func Response(err error) *lambdahttp.Response {
	body := ErrorBody{
		Error: GetErrorMessage(err),
		Code:  GetErrorCode(err),
	}
	if details := GetErrorDetails(err); details != body.Error {
		body.Details = details
	}

	// ErrorBody only holds strings
	encoded, _ := json.Marshal(body)

	resp := lambdahttp.NewResponse(GetStatusCode(err), encoded)
	resp.Header.Set(constants.ContentTypeHeader, constants.ContentTypeJSON)
	return resp
}

// Middleware turns AppErrors returned by next into error responses. Other errors are
// passed through so the Lambda runtime records the invocation as failed.
func Middleware(next lambdahttp.Handler) lambdahttp.Handler {
	return lambdahttp.HandlerFunc(func(ctx context.Context, req *lambdahttp.Request) (lambdahttp.Responder, error) {
		responder, err := next.ServeLambda(ctx, req)
		if err == nil {
			return responder, nil
		}

		var appErr *AppError
		if errors.As(err, &appErr) {
			return Response(appErr), nil
		}

		return nil, err
	})
}
