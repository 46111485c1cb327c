package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/heavens/lambdahttp/internal/config"
	"github.com/heavens/lambdahttp/internal/functions"
	"github.com/heavens/lambdahttp/internal/localgw"
	"github.com/heavens/lambdahttp/internal/output"
	"github.com/heavens/lambdahttp/pkg/lambdahttp/origin"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var (
	serveListen     string
	serveOrigin     string
	serveFunction   string
	serveQualifier  string
	serveHandler    string
	serveMultiValue bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local gateway in front of a handler or a deployed function",
	Long: `Serve listens for plain HTTP requests, wraps each one in the envelope of the
configured trigger, invokes the function and writes its reply back. WebSocket clients
connecting to /_ws get $connect, $default and $disconnect invocations.`,
	Args: cobra.NoArgs,
	RunE: serveRun,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (overrides listen_addr)")
	serveCmd.Flags().StringVar(&serveOrigin, "origin", "", "Trigger to emulate: alb, apigw-v1 or apigw-v2 (overrides origin)")
	serveCmd.Flags().BoolVar(&serveMultiValue, "multi-value", false, "Use multi-value headers for alb and apigw-v1")
	serveCmd.Flags().StringVar(&serveFunction, "function", "", "Name or ARN of a deployed function to invoke")
	serveCmd.Flags().StringVar(&serveQualifier, "qualifier", "", "Version or alias of the deployed function")
	serveCmd.Flags().StringVar(&serveHandler, "handler", "router",
		"Example handler to serve locally: "+strings.Join(functions.Names(), ", "))
	rootCmd.AddCommand(serveCmd)
}

func serveRun(cmd *cobra.Command, _ []string) error {
	cfg, err := getConfigFromContext(cmd)
	if err != nil {
		return err
	}
	opts, addr, err := serveOptions(cfg, cmd.Flags().Changed("multi-value"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	invoker, name, err := newInvoker(ctx, cfg, serveFunction, serveQualifier, serveHandler)
	if err != nil {
		return err
	}
	opts.FunctionName = name

	srv, err := localgw.New(invoker, opts, slog.Default(), prometheus.NewRegistry())
	if err != nil {
		return err
	}

	output.Infof("Serving %s as %s on http://%s (Ctrl+C to stop)", name, opts.Origin, addr)
	output.Infof("Health check: http://%s/_health", addr)
	output.Infof("WebSocket: ws://%s/_ws", addr)

	return srv.Run(ctx, addr, cfg.ShutdownTimeout)
}

// serveOptions merges the serve flags over cfg.
func serveOptions(cfg *config.Config, multiValueSet bool) (localgw.Options, string, error) {
	addr := cfg.ListenAddr
	if serveListen != "" {
		addr = serveListen
	}

	o := origin.Origin(cfg.Origin)
	if serveOrigin != "" {
		o = origin.Origin(strings.ToLower(strings.TrimSpace(serveOrigin)))
	}
	if o == origin.WebSocket || !o.Valid() {
		return localgw.Options{}, "", fmt.Errorf("invalid origin %q (use alb, apigw-v1 or apigw-v2)", o)
	}

	multiValue := cfg.MultiValue
	if multiValueSet {
		multiValue = serveMultiValue
	}

	return localgw.Options{
		Origin:         o,
		MultiValue:     multiValue,
		Stage:          cfg.Stage,
		RequestTimeout: cfg.RequestTimeout,
	}, addr, nil
}
