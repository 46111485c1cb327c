package lambdahttp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/heavens/lambdahttp/internal/logger"
	"github.com/heavens/lambdahttp/pkg/lambdahttp/origin"

	"github.com/aws/aws-lambda-go/lambda"
)

// Handler serves canonical requests. The returned Responder is rendered after
// ServeLambda returns; a returned error is reported to the Lambda runtime unchanged.
type Handler interface {
	ServeLambda(ctx context.Context, req *Request) (Responder, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, req *Request) (Responder, error)

// ServeLambda implements Handler.
func (f HandlerFunc) ServeLambda(ctx context.Context, req *Request) (Responder, error) {
	return f(ctx, req)
}

// ReadyChecker is implemented by handlers that can refuse work, e.g. while warming up.
type ReadyChecker interface {
	Ready(ctx context.Context) error
}

// ReplyHook runs after a reply has been produced and before it is returned to the runtime.
type ReplyHook func(ctx context.Context, reply origin.Reply) error

// Adapter drives a Handler from Lambda trigger envelopes. It implements lambda.Handler.
type Adapter struct {
	handler Handler
	logger  *slog.Logger
	hooks   []ReplyHook
}

var _ lambda.Handler = (*Adapter)(nil)

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger used for diagnostics. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(a *Adapter) {
		if log != nil {
			a.logger = log
		}
	}
}

// WithReplyHook registers a hook run on every successful reply, in registration order.
func WithReplyHook(hook ReplyHook) Option {
	return func(a *Adapter) {
		if hook != nil {
			a.hooks = append(a.hooks, hook)
		}
	}
}

// NewAdapter wraps h. It panics if h is nil.
func NewAdapter(h Handler, opts ...Option) *Adapter {
	if h == nil {
		panic("lambdahttp: nil handler")
	}

	a := &Adapter{handler: h, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Ready forwards to the handler's readiness check. Handlers that do not implement
// ReadyChecker are always ready. Invoke does not consult it; drivers that can hold
// traffic back, like a health endpoint, do.
func (a *Adapter) Ready(ctx context.Context) error {
	if rc, ok := a.handler.(ReadyChecker); ok {
		return rc.Ready(ctx)
	}
	return nil
}

// Call normalizes env right away and returns a Transform that will call the handler
// when stepped. A normalization failure is returned without calling the handler.
func (a *Adapter) Call(ctx context.Context, env origin.Envelope) (*Transform, error) {
	req, err := Normalize(env, ExecutionContext(ctx))
	if err != nil {
		return nil, err
	}

	reqLogger := logger.DeriveRequestLogger(ctx, a.logger)
	reqLogger.Debug("normalized request", "context", map[string]any{
		"origin": req.Origin().String(),
		"method": req.Method,
		"uri":    req.RequestURI(),
	})

	call := func(ctx context.Context) (Responder, error) {
		return a.handler.ServeLambda(ctx, req)
	}

	return newTransform(req.invocation, call, reqLogger), nil
}

// Handle processes one envelope to completion.
func (a *Adapter) Handle(ctx context.Context, env origin.Envelope) (origin.Reply, error) {
	t, err := a.Call(ctx, env)
	if err != nil {
		return nil, err
	}

	reply, err := t.Run(ctx)
	if err != nil {
		return nil, err
	}

	for _, hook := range a.hooks {
		if err = hook(ctx, reply); err != nil {
			return nil, fmt.Errorf("reply hook: %w", err)
		}
	}

	return reply, nil
}

// Invoke implements lambda.Handler: it parses the raw payload, handles it and
// returns the JSON encoded reply.
func (a *Adapter) Invoke(ctx context.Context, payload []byte) ([]byte, error) {
	reqLogger := logger.DeriveRequestLogger(ctx, a.logger)

	env, err := origin.Parse(payload)
	if err != nil {
		reqLogger.Error("malformed envelope", "error", err)
		return nil, err
	}

	reqLogger.Debug("received envelope", "context", logger.SliceToMap(
		append([]any{"origin", env.Origin().String()}, logger.GetDeadlineInfo(ctx)...),
	))

	reply, err := a.Handle(ctx, env)
	if err != nil {
		return nil, err
	}

	out, err := json.Marshal(reply)
	if err != nil {
		return nil, fmt.Errorf("encode %s reply: %w", reply.Origin(), err)
	}

	return out, nil
}

// Start runs h on the Lambda runtime. It blocks and does not return.
func Start(h Handler, opts ...Option) {
	lambda.Start(NewAdapter(h, opts...))
}
