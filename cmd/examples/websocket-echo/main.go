// Package main implements a Lambda function attached to an API Gateway WebSocket API.
// Every message is echoed back to its connection through the management API, and the
// route response is left empty. Without websocket_endpoint the management endpoint is
// derived from the domain name and stage of each message.
package main

import (
	"context"
	"os"

	"github.com/heavens/lambdahttp/internal/config"
	awsconfig "github.com/heavens/lambdahttp/internal/config/aws"
	"github.com/heavens/lambdahttp/internal/constants"
	"github.com/heavens/lambdahttp/internal/functions"
	"github.com/heavens/lambdahttp/internal/logger"
	"github.com/heavens/lambdahttp/internal/socket"
	"github.com/heavens/lambdahttp/pkg/lambdahttp"
)

func main() {
	cfg := config.MustLoad()
	log := logger.Initialize(constants.Production, cfg.GetLogLevel())

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	sdkConfig, err := awsconfig.LoadSDKConfig(ctx, cfg.AWSRegion)
	cancel()
	if err != nil {
		log.Error("failed to load AWS configuration", "error", err)
		os.Exit(1)
	}

	pusher := socket.NewPusherFromConfig(sdkConfig, cfg.WebSocketEndpoint, log)

	log.With("version", *constants.GetVersion()).Debug("starting websocket-echo Lambda handler")
	lambdahttp.Start(
		lambdahttp.HandlerFunc(functions.Echo),
		lambdahttp.WithLogger(log),
		lambdahttp.WithReplyHook(pusher.Hook()),
	)
}
