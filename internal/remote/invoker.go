// Package remote invokes deployed Lambda functions with trigger envelopes.
package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/heavens/lambdahttp/internal/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
)

// Client is the subset of the Lambda API used by Invoker.
type Client interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// FunctionError is returned when the function ran but reported an error, e.g. an
// unhandled panic or a returned error. Payload holds the error document of the runtime.
type FunctionError struct {
	Function string
	Kind     string
	Payload  []byte
}

func (e *FunctionError) Error() string {
	return fmt.Sprintf("function %s failed (%s): %s", e.Function, e.Kind, e.Payload)
}

// Invoker invokes one deployed function synchronously.
type Invoker struct {
	client    Client
	function  string
	qualifier string
	logger    *slog.Logger
}

// InvokerOption configures an Invoker.
type InvokerOption func(*Invoker)

// WithQualifier invokes a version or alias of the function.
func WithQualifier(qualifier string) InvokerOption {
	return func(i *Invoker) {
		i.qualifier = qualifier
	}
}

// NewInvoker creates an Invoker for function, a name or ARN.
func NewInvoker(client Client, function string, log *slog.Logger, opts ...InvokerOption) (*Invoker, error) {
	if client == nil {
		return nil, errors.New("lambda client is required")
	}
	if function == "" {
		return nil, errors.New("function name is required")
	}
	if log == nil {
		log = slog.Default()
	}

	i := &Invoker{client: client, function: function, logger: log}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// NewInvokerFromConfig creates an Invoker backed by a Lambda client built from cfg.
func NewInvokerFromConfig(cfg aws.Config, function string, log *slog.Logger, opts ...InvokerOption) (*Invoker, error) {
	return NewInvoker(lambda.NewFromConfig(cfg), function, log, opts...)
}

// Invoke sends payload to the function and returns its response payload.
// A function error is returned as *FunctionError.
func (i *Invoker) Invoke(ctx context.Context, payload []byte) ([]byte, error) {
	reqLogger := logger.DeriveRequestLogger(ctx, i.logger)

	input := &lambda.InvokeInput{
		FunctionName:   aws.String(i.function),
		InvocationType: types.InvocationTypeRequestResponse,
		Payload:        payload,
	}
	if i.qualifier != "" {
		input.Qualifier = aws.String(i.qualifier)
	}

	reqLogger.Debug("calling external service", "context", map[string]any{
		"operation":     "Lambda.Invoke",
		"function_name": i.function,
		"qualifier":     i.qualifier,
		"payload_bytes": len(payload),
	})

	out, err := i.client.Invoke(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to invoke function %s: %w", i.function, err)
	}

	if out.FunctionError != nil {
		reqLogger.Warn("function reported an error", "context", map[string]any{
			"function_name": i.function,
			"kind":          aws.ToString(out.FunctionError),
			"status_code":   out.StatusCode,
		})
		return nil, &FunctionError{
			Function: i.function,
			Kind:     aws.ToString(out.FunctionError),
			Payload:  out.Payload,
		}
	}

	return out.Payload, nil
}
