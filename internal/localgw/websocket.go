package localgw

import (
	"context"
	"net/http"
	"unicode/utf8"

	apperrors "github.com/heavens/lambdahttp/internal/errors"
	"github.com/heavens/lambdahttp/internal/logger"
	"github.com/heavens/lambdahttp/pkg/lambdahttp/origin"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WebSocket event types and routes, as API Gateway names them.
const (
	EventConnect    = "CONNECT"
	EventMessage    = "MESSAGE"
	EventDisconnect = "DISCONNECT"

	RouteConnect    = "$connect"
	RouteDefault    = "$default"
	RouteDisconnect = "$disconnect"
)

// serveWebSocket emulates an API Gateway WebSocket API on one connection: $connect on
// upgrade, one $default invocation per message and $disconnect when the client leaves.
// A reply body to a message is written back to the client.
func (s *Server) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	connectionID := uuid.NewString()
	ctx := logger.WithRequestID(r.Context(), connectionID)
	reqLogger := logger.DeriveRequestLogger(ctx, s.logger).With("connection_id", connectionID)

	// $connect decides whether the upgrade happens.
	decoded, err := s.invokeWebSocket(ctx, EventConnect, RouteConnect, connectionID, r, nil)
	if err != nil {
		reqLogger.Error("$connect invocation failed", "error", err)
		writeError(w, apperrors.ErrFunctionError(err))
		return
	}
	if decoded.StatusCode >= http.StatusMultipleChoices {
		reqLogger.Info("connection refused by $connect", "status", decoded.StatusCode)
		writeDecoded(w, decoded)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		reqLogger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	s.metrics.ActiveConnections.Inc()
	defer s.metrics.ActiveConnections.Dec()
	reqLogger.Info("websocket connected")

	defer func() {
		if _, err := s.invokeWebSocket(
			context.WithoutCancel(ctx), EventDisconnect, RouteDisconnect, connectionID, r, nil,
		); err != nil {
			reqLogger.Error("$disconnect invocation failed", "error", err)
		}
		reqLogger.Info("websocket disconnected")
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				reqLogger.Debug("websocket read ended", "error", err)
			}
			return
		}

		decoded, err := s.invokeWebSocket(ctx, EventMessage, RouteDefault, connectionID, r, message)
		if err != nil {
			reqLogger.Error("$default invocation failed", "error", err)
			continue
		}
		if len(decoded.Body) == 0 {
			continue
		}

		messageType := websocket.TextMessage
		if !utf8.Valid(decoded.Body) {
			messageType = websocket.BinaryMessage
		}
		if err = conn.WriteMessage(messageType, decoded.Body); err != nil {
			reqLogger.Error("failed to write reply to websocket", "error", err)
			return
		}
	}
}

func (s *Server) invokeWebSocket(
	ctx context.Context,
	eventType, routeKey, connectionID string,
	handshake *http.Request,
	body []byte,
) (*origin.Decoded, error) {
	requestID := uuid.NewString()
	env := webSocketEnvelope(eventType, routeKey, connectionID, handshake, body, EnvelopeOptions{
		Stage:     s.opts.Stage,
		RequestID: requestID,
	})
	return s.invoke(ctx, requestID, env)
}
