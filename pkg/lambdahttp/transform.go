package lambdahttp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heavens/lambdahttp/pkg/lambdahttp/origin"
)

// State is the phase a Transform is in.
type State int

const (
	// StateAwaitingHandler means the handler has not produced its result yet.
	StateAwaitingHandler State = iota
	// StateAwaitingResponse means the handler succeeded and its Responder has not been rendered.
	StateAwaitingResponse
	// StateDone means the Transform produced a reply or an error.
	StateDone
)

// String returns the string representation of the State.
func (s State) String() string {
	switch s {
	case StateAwaitingHandler:
		return "awaiting-handler"
	case StateAwaitingResponse:
		return "awaiting-response"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Transform carries one invocation from handler call to reply envelope.
// Each Step advances exactly one phase: first the handler call, then rendering of the
// Responder followed by denormalization. A Transform runs entirely on the goroutine
// that steps it; dropping it before StateDone abandons the remaining work.
type Transform struct {
	state      State
	invocation Invocation
	call       func(ctx context.Context) (Responder, error)
	responder  Responder
	reply      origin.Reply
	err        error
	logger     *slog.Logger
}

func newTransform(inv Invocation, call func(ctx context.Context) (Responder, error), log *slog.Logger) *Transform {
	return &Transform{
		state:      StateAwaitingHandler,
		invocation: inv,
		call:       call,
		logger:     log,
	}
}

// State returns the current phase.
func (t *Transform) State() State {
	return t.state
}

// Origin returns the origin the reply will be shaped for.
func (t *Transform) Origin() origin.Origin {
	return t.invocation.Origin
}

// Reply returns the reply once the Transform is done, nil otherwise.
func (t *Transform) Reply() origin.Reply {
	return t.reply
}

// Err returns the error the Transform completed with, if any.
func (t *Transform) Err() error {
	return t.err
}

// Step advances the Transform by one phase and reports whether it is done.
// A handler error ends the Transform immediately and is returned unchanged.
func (t *Transform) Step(ctx context.Context) (bool, error) {
	switch t.state {
	case StateAwaitingHandler:
		responder, err := t.call(ctx)
		t.call = nil
		if err != nil {
			t.complete(nil, err)
			return true, err
		}
		t.responder = responder
		t.state = StateAwaitingResponse
		return false, nil
	case StateAwaitingResponse:
		resp, err := render(ctx, t.responder)
		t.responder = nil
		if err != nil {
			t.complete(nil, fmt.Errorf("render response: %w", err))
			return true, t.err
		}
		reply, err := Denormalize(resp, t.invocation, t.logger)
		t.complete(reply, err)
		return true, err
	default:
		return true, t.err
	}
}

// Run steps the Transform until it is done.
func (t *Transform) Run(ctx context.Context) (origin.Reply, error) {
	for {
		done, err := t.Step(ctx)
		if done {
			return t.reply, err
		}
	}
}

func (t *Transform) complete(reply origin.Reply, err error) {
	t.state = StateDone
	t.reply = reply
	t.err = err
}
