// Package main implements a Lambda function that greets the first_name query parameter.
// It can be attached to an ALB target group, a REST API, an HTTP API or a Function URL.
package main

import (
	"github.com/heavens/lambdahttp/internal/config"
	"github.com/heavens/lambdahttp/internal/constants"
	apperrors "github.com/heavens/lambdahttp/internal/errors"
	"github.com/heavens/lambdahttp/internal/functions"
	"github.com/heavens/lambdahttp/internal/logger"
	"github.com/heavens/lambdahttp/pkg/lambdahttp"
)

func main() {
	cfg := config.MustLoad()
	log := logger.Initialize(constants.Production, cfg.GetLogLevel())

	log.With("version", *constants.GetVersion()).Debug("starting http-query-parameters Lambda handler")
	lambdahttp.Start(
		apperrors.Middleware(lambdahttp.HandlerFunc(functions.Hello)),
		lambdahttp.WithLogger(log),
	)
}
