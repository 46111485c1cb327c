// Package localgw runs a local HTTP gateway that turns plain HTTP requests and WebSocket
// messages into Lambda trigger envelopes, invokes a function with them and writes the
// replies back, the way ALB or API Gateway would.
package localgw

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/heavens/lambdahttp/internal/constants"
	apperrors "github.com/heavens/lambdahttp/internal/errors"
	"github.com/heavens/lambdahttp/internal/logger"
	"github.com/heavens/lambdahttp/pkg/lambdahttp/origin"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// Invoker runs a function with a raw trigger payload. *lambdahttp.Adapter invokes a handler
// in process and *remote.Invoker invokes a deployed function.
type Invoker interface {
	Invoke(ctx context.Context, payload []byte) ([]byte, error)
}

// readiness is implemented by invokers that can report they are not ready, like *lambdahttp.Adapter.
type readiness interface {
	Ready(ctx context.Context) error
}

// Options configures a Server.
type Options struct {
	// Origin is the trigger emulated for plain HTTP requests: ALB, APIGatewayV1 or APIGatewayV2.
	Origin origin.Origin
	// MultiValue enables multi-value headers and query parameters for ALB and REST envelopes.
	MultiValue bool
	// Stage is the API Gateway stage name put into envelopes.
	Stage string
	// RequestTimeout bounds every invocation; zero means constants.DefaultRequestTimeout.
	RequestTimeout time.Duration
	// FunctionName is reported in the invocation context.
	FunctionName string
}

// Server is the local gateway.
type Server struct {
	invoker  Invoker
	opts     Options
	logger   *slog.Logger
	metrics  *Metrics
	gatherer prometheus.Gatherer
	upgrader websocket.Upgrader
}

// New creates a Server. Metrics are registered with reg.
func New(invoker Invoker, opts Options, log *slog.Logger, reg *prometheus.Registry) (*Server, error) {
	switch opts.Origin {
	case origin.ALB, origin.APIGatewayV1, origin.APIGatewayV2:
	default:
		return nil, fmt.Errorf("local gateway cannot emulate origin %q", opts.Origin)
	}
	if opts.Stage == "" {
		opts.Stage = constants.DefaultStage
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = constants.DefaultRequestTimeout
	}
	if opts.FunctionName == "" {
		opts.FunctionName = constants.ProjectName + "-local"
	}
	if log == nil {
		log = slog.Default()
	}

	return &Server{
		invoker:  invoker,
		opts:     opts,
		logger:   log,
		metrics:  NewMetrics(reg),
		gatherer: reg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}, nil
}

// Router returns the HTTP handler of the gateway.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/_health", func(w http.ResponseWriter, req *http.Request) {
		if rc, ok := s.invoker.(readiness); ok {
			if err := rc.Ready(req.Context()); err != nil {
				writeError(w, apperrors.ErrServiceUnavailable("function is not ready", err))
				return
			}
		}
		w.Header().Set(constants.ContentTypeHeader, constants.ContentTypeJSON)
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, `{"status":"ok","origin":%q}`, s.opts.Origin)
	})
	r.Handle("/_metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Get("/_ws", s.serveWebSocket)
	r.HandleFunc("/*", s.serveHTTP)

	return r
}

// Run listens on addr and serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln, shutdownTimeout)
}

// Serve is like Run with an existing listener, which it closes.
func (s *Server) Serve(ctx context.Context, ln net.Listener, shutdownTimeout time.Duration) error {
	if shutdownTimeout <= 0 {
		shutdownTimeout = constants.ServerShutdownTimeout
	}

	// Write deadlines would also apply to hijacked WebSocket connections.
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: constants.ServerReadHeaderTimeout,
		IdleTimeout:       constants.ServerIdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("starting local gateway",
			"address", ln.Addr().String(),
			"origin", s.opts.Origin.String(),
			"version", *constants.GetVersion(),
		)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		s.logger.Info("shutting down local gateway...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	s.logger.Info("local gateway shutdown complete")
	return nil
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	ctx := logger.WithRequestID(r.Context(), requestID)
	reqLogger := logger.DeriveRequestLogger(ctx, s.logger)
	w.Header().Set(constants.RequestIDHeader, requestID)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, apperrors.ErrBadRequest("failed to read request body", err))
		return
	}

	env, err := BuildEnvelope(s.opts.Origin, r, body, EnvelopeOptions{
		Stage:      s.opts.Stage,
		MultiValue: s.opts.MultiValue,
		RequestID:  requestID,
	})
	if err != nil {
		writeError(w, apperrors.ErrInternalError("failed to build envelope", err))
		return
	}

	decoded, err := s.invoke(ctx, requestID, env)
	if err != nil {
		reqLogger.Error("invocation failed", "context", map[string]string{
			"method": r.Method,
			"uri":    r.RequestURI,
			"error":  err.Error(),
		})
		writeError(w, apperrors.ErrFunctionError(err))
		return
	}

	reqLogger.Info("request served", "context", map[string]any{
		"method": r.Method,
		"uri":    r.RequestURI,
		"status": decoded.StatusCode,
	})
	writeDecoded(w, decoded)
}

// invoke sends env to the function and decodes its reply.
func (s *Server) invoke(ctx context.Context, requestID string, env origin.Envelope) (*origin.Decoded, error) {
	o := env.Origin()
	start := time.Now()
	outcome := OutcomeError
	defer func() {
		s.metrics.InvocationsTotal.WithLabelValues(o.String(), outcome).Inc()
		s.metrics.InvocationDuration.WithLabelValues(o.String()).Observe(time.Since(start).Seconds())
	}()

	payload, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", o, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
	defer cancel()
	ctx = lambdacontext.NewContext(ctx, &lambdacontext.LambdaContext{
		AwsRequestID:       requestID,
		InvokedFunctionArn: "arn:aws:lambda:local:000000000000:function:" + s.opts.FunctionName,
	})

	out, err := s.invoker.Invoke(ctx, payload)
	if err != nil {
		if origin.IsParseError(err) {
			outcome = OutcomeMalformed
		}
		return nil, err
	}

	reply, err := origin.ParseReply(o, out)
	if err != nil {
		outcome = OutcomeMalformed
		return nil, err
	}
	decoded, err := reply.Decode()
	if err != nil {
		outcome = OutcomeMalformed
		return nil, err
	}

	outcome = OutcomeSuccess
	return decoded, nil
}

func writeDecoded(w http.ResponseWriter, decoded *origin.Decoded) {
	for key, values := range decoded.Header {
		w.Header()[key] = values
	}
	status := decoded.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write(decoded.Body)
}

func writeError(w http.ResponseWriter, err error) {
	writeDecoded(w, decodedError(err))
}

func decodedError(err error) *origin.Decoded {
	resp := apperrors.Response(err)
	return &origin.Decoded{StatusCode: resp.StatusCode, Header: resp.Header, Body: resp.Body}
}
