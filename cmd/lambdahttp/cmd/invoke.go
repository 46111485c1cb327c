package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/heavens/lambdahttp/internal/config"
	awsconfig "github.com/heavens/lambdahttp/internal/config/aws"
	"github.com/heavens/lambdahttp/internal/constants"
	apperrors "github.com/heavens/lambdahttp/internal/errors"
	"github.com/heavens/lambdahttp/internal/functions"
	"github.com/heavens/lambdahttp/internal/localgw"
	"github.com/heavens/lambdahttp/internal/output"
	"github.com/heavens/lambdahttp/internal/remote"
	"github.com/heavens/lambdahttp/pkg/lambdahttp"
	"github.com/heavens/lambdahttp/pkg/lambdahttp/origin"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	invokeFunction  string
	invokeQualifier string
	invokeHandler   string
)

var invokeCmd = &cobra.Command{
	Use:   "invoke <event.json|->",
	Short: "Invoke an example handler or a deployed function with an event",
	Long: `Invoke sends a trigger envelope to one of the built-in example handlers, or to a
deployed Lambda function when --function is set, and prints the reply envelope.`,
	Args: cobra.ExactArgs(1),
	RunE: invokeRun,
}

func init() {
	invokeCmd.Flags().StringVar(&invokeFunction, "function", "", "Name or ARN of a deployed function to invoke")
	invokeCmd.Flags().StringVar(&invokeQualifier, "qualifier", "", "Version or alias of the deployed function")
	invokeCmd.Flags().StringVar(&invokeHandler, "handler", "hello",
		"Example handler to invoke locally: "+strings.Join(functions.Names(), ", "))
	rootCmd.AddCommand(invokeCmd)
}

func invokeRun(cmd *cobra.Command, args []string) error {
	cfg, err := getConfigFromContext(cmd)
	if err != nil {
		return err
	}

	payload, err := readEvent(args[0])
	if err != nil {
		return err
	}

	invoker, name, err := newInvoker(cmd.Context(), cfg, invokeFunction, invokeQualifier, invokeHandler)
	if err != nil {
		return err
	}

	service := NewInvokeService(invoker, NewTerminalReporter(), constants.OutputFormat(outputFormat))
	service.output.Infof("Invoking %s", name)
	_, err = service.Invoke(cmd.Context(), payload)
	return err
}

// newInvoker returns a remote invoker when function is set and an in-process adapter
// around the named example handler otherwise. The second value names the target.
func newInvoker(
	ctx context.Context, cfg *config.Config, function, qualifier, handler string,
) (localgw.Invoker, string, error) {
	if function != "" {
		sdkConfig, err := awsconfig.LoadSDKConfig(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, "", err
		}
		var opts []remote.InvokerOption
		if qualifier != "" {
			opts = append(opts, remote.WithQualifier(qualifier))
		}
		inv, err := remote.NewInvokerFromConfig(sdkConfig, function, slog.Default(), opts...)
		if err != nil {
			return nil, "", err
		}
		return inv, function, nil
	}

	h, ok := functions.Lookup(handler)
	if !ok {
		return nil, "", fmt.Errorf("unknown handler %q (available: %s)", handler, strings.Join(functions.Names(), ", "))
	}
	return lambdahttp.NewAdapter(h, lambdahttp.WithLogger(slog.Default())), handler, nil
}

// InvokeService sends one envelope to an invoker and prints the reply.
type InvokeService struct {
	invoker localgw.Invoker
	output  Reporter
	format  constants.OutputFormat
	timeout time.Duration
}

// NewInvokeService creates a new InvokeService with the provided dependencies.
func NewInvokeService(invoker localgw.Invoker, reporter Reporter, format constants.OutputFormat) *InvokeService {
	return &InvokeService{
		invoker: invoker,
		output:  reporter,
		format:  format,
		timeout: constants.DefaultInvokeTimeout,
	}
}

// Invoke validates payload, invokes the function with it and renders the reply envelope.
// The decoded reply is returned.
func (s *InvokeService) Invoke(ctx context.Context, payload []byte) (*origin.Decoded, error) {
	o, err := origin.Detect(payload)
	if err != nil {
		return nil, apperrors.ErrMalformedEvent(err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	ctx = lambdacontext.NewContext(ctx, &lambdacontext.LambdaContext{AwsRequestID: uuid.NewString()})

	start := time.Now()
	out, err := s.invoker.Invoke(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("invocation failed: %w", err)
	}
	elapsed := time.Since(start)

	reply, err := origin.ParseReply(o, out)
	if err != nil {
		return nil, fmt.Errorf("unexpected reply: %w", err)
	}
	decoded, err := reply.Decode()
	if err != nil {
		return nil, fmt.Errorf("unexpected reply: %w", err)
	}

	if err = s.output.Render(s.format, reply); err != nil {
		return nil, err
	}

	s.output.Header("Reply")
	s.output.KeyValue("Origin", o.String())
	s.output.KeyValue("Status", output.Status(decoded.StatusCode))
	s.output.KeyValue("Body bytes", strconv.Itoa(len(decoded.Body)))
	s.output.KeyValue("Duration", elapsed.Round(time.Millisecond).String())
	if len(decoded.Header) > 0 {
		s.output.Blank()
		s.output.Table([]string{"Header", "Value"}, headerRows(decoded.Header))
	}
	if decoded.StatusCode >= 400 {
		s.output.Warningf("Function replied with status %d", decoded.StatusCode)
	} else {
		s.output.Successf("Invocation succeeded")
	}

	return decoded, nil
}

// headerRows lists reply headers sorted by name, one row per value.
func headerRows(h http.Header) [][]string {
	var rows [][]string
	for _, name := range slices.Sorted(maps.Keys(h)) {
		for _, value := range h[name] {
			rows = append(rows, []string{name, value})
		}
	}
	return rows
}
