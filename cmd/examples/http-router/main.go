// Package main implements a Lambda function serving a chi router.
// With -engine=algnhsa the same router is served through algnhsa instead of lambdahttp,
// which is handy to compare both adapters on the same deployment.
package main

import (
	"flag"
	"os"

	"github.com/heavens/lambdahttp/internal/config"
	"github.com/heavens/lambdahttp/internal/constants"
	"github.com/heavens/lambdahttp/internal/functions"
	"github.com/heavens/lambdahttp/internal/logger"
	"github.com/heavens/lambdahttp/pkg/lambdahttp"

	"github.com/akrylysov/algnhsa"
)

func main() {
	engine := flag.String("engine", "lambdahttp", "adapter serving the router: lambdahttp or algnhsa")
	flag.Parse()

	cfg := config.MustLoad()
	log := logger.Initialize(constants.Production, cfg.GetLogLevel())
	mux := functions.NewMux(log)

	log.With("version", *constants.GetVersion()).Debug("starting http-router Lambda handler", "engine", *engine)
	switch *engine {
	case "lambdahttp":
		lambdahttp.Start(lambdahttp.FromHTTPHandler(mux), lambdahttp.WithLogger(log))
	case "algnhsa":
		algnhsa.ListenAndServe(mux, nil)
	default:
		log.Error("unknown engine", "engine", *engine)
		os.Exit(1)
	}
}
