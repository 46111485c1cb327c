package socket

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	awsconfig "github.com/heavens/lambdahttp/internal/config/aws"
	"github.com/heavens/lambdahttp/internal/logger"
	"github.com/heavens/lambdahttp/pkg/lambdahttp"
	"github.com/heavens/lambdahttp/pkg/lambdahttp/origin"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"github.com/aws/smithy-go"
)

// ErrNoConnection is returned when a WebSocket reply carries no connection id.
var ErrNoConnection = errors.New("websocket reply has no connection id")

// ErrNoEndpoint is returned when no management API endpoint is configured and the reply
// carries no domain name to derive one from.
var ErrNoEndpoint = errors.New("websocket reply has no management endpoint")

// ClientFactory builds a Client for a management API endpoint.
type ClientFactory func(endpoint string) Client

// Pusher sends WebSocket reply bodies back to the client connection.
//
// API Gateway only forwards the integration response of routes that have a route response
// configured; posting through the management API reaches the client in every case.
type Pusher struct {
	client    Client
	newClient ClientFactory
	logger    *slog.Logger

	mu      sync.Mutex
	clients map[string]Client
}

// NewPusher creates a Pusher posting every reply through client.
func NewPusher(client Client, log *slog.Logger) *Pusher {
	if log == nil {
		log = slog.Default()
	}
	return &Pusher{client: client, logger: log}
}

// NewResolvingPusher creates a Pusher that derives the management API endpoint of each
// reply from its domain name and stage, and posts through a client built by newClient.
// Clients are reused per endpoint.
func NewResolvingPusher(newClient ClientFactory, log *slog.Logger) *Pusher {
	if log == nil {
		log = slog.Default()
	}
	return &Pusher{newClient: newClient, logger: log, clients: make(map[string]Client)}
}

// NewPusherFromConfig creates a Pusher for the management API at endpoint, given in
// any form accepted by awsconfig.ManagementEndpoint. With an empty endpoint the
// endpoint is derived from every reply.
func NewPusherFromConfig(cfg aws.Config, endpoint string, log *slog.Logger) *Pusher {
	newClient := func(base string) Client {
		return NewClientAdapter(apigatewaymanagementapi.NewFromConfig(cfg, func(o *apigatewaymanagementapi.Options) {
			o.BaseEndpoint = aws.String(base)
		}))
	}

	if endpoint == "" {
		return NewResolvingPusher(newClient, log)
	}
	return NewPusher(newClient(awsconfig.ManagementEndpoint(endpoint)), log)
}

// Hook returns a ReplyHook that pushes WebSocket replies with a non-empty body.
// A pushed reply is emptied so a configured route response does not deliver it twice.
// Replies for other origins are ignored.
func (p *Pusher) Hook() lambdahttp.ReplyHook {
	return func(ctx context.Context, reply origin.Reply) error {
		wsReply, ok := reply.(*origin.WebSocketReply)
		if !ok || wsReply.Body == "" {
			return nil
		}
		if err := p.Push(ctx, wsReply); err != nil {
			return err
		}
		wsReply.Body = ""
		wsReply.IsBase64Encoded = false
		return nil
	}
}

// clientFor returns the client that reaches the connection of reply.
func (p *Pusher) clientFor(reply *origin.WebSocketReply) (Client, error) {
	if p.client != nil {
		return p.client, nil
	}

	endpoint := awsconfig.ManagementEndpointFor(reply.DomainName, reply.Stage)
	if endpoint == "" {
		return nil, ErrNoEndpoint
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	client, ok := p.clients[endpoint]
	if !ok {
		client = p.newClient(endpoint)
		p.clients[endpoint] = client
	}

	return client, nil
}

// Push posts the reply body to its connection. A connection that is already gone is
// logged and not reported as an error.
func (p *Pusher) Push(ctx context.Context, reply *origin.WebSocketReply) error {
	reqLogger := logger.DeriveRequestLogger(ctx, p.logger)

	if reply.ConnectionID == "" {
		return ErrNoConnection
	}

	client, err := p.clientFor(reply)
	if err != nil {
		return err
	}

	data := []byte(reply.Body)
	if reply.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(reply.Body)
		if err != nil {
			return fmt.Errorf("decode reply body: %w", err)
		}
		data = decoded
	}

	logArgs := []any{
		"operation", "ApiGatewayManagementApi.PostToConnection",
		"connection_id", reply.ConnectionID,
		"bytes", len(data),
	}
	logArgs = append(logArgs, logger.GetDeadlineInfo(ctx)...)
	reqLogger.Debug("calling external service", "context", logger.SliceToMap(logArgs))

	_, err = client.PostToConnection(ctx, &apigatewaymanagementapi.PostToConnectionInput{
		ConnectionId: aws.String(reply.ConnectionID),
		Data:         data,
	})
	if err == nil {
		return nil
	}

	if IsGone(err) {
		reqLogger.Warn("connection is gone, dropping reply", "context", map[string]string{
			"connection_id": reply.ConnectionID,
		})
		return nil
	}

	reqLogger.Error("failed to push reply to connection", "context", map[string]string{
		"error":         err.Error(),
		"connection_id": reply.ConnectionID,
	})
	return fmt.Errorf("failed to push reply to connection %s: %w", reply.ConnectionID, err)
}

// IsGone reports whether err says the WebSocket connection no longer exists.
func IsGone(err error) bool {
	var gone *types.GoneException
	if errors.As(err, &gone) {
		return true
	}

	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "GoneException"
}
