package cmd

import (
	"strconv"

	apperrors "github.com/heavens/lambdahttp/internal/errors"
	"github.com/heavens/lambdahttp/pkg/lambdahttp/origin"

	"github.com/spf13/cobra"
)

var detectCmd = &cobra.Command{
	Use:   "detect <event.json|->",
	Short: "Detect which trigger produced an event",
	Args:  cobra.ExactArgs(1),
	RunE:  detectRun,
}

func init() {
	rootCmd.AddCommand(detectCmd)
}

func detectRun(_ *cobra.Command, args []string) error {
	payload, err := readEvent(args[0])
	if err != nil {
		return err
	}

	_, err = NewDetectService(NewTerminalReporter()).Detect(payload)
	return err
}

// DetectService reports the origin and reply metadata of trigger envelopes.
type DetectService struct {
	output Reporter
}

// NewDetectService creates a new DetectService with the provided dependencies.
func NewDetectService(reporter Reporter) *DetectService {
	return &DetectService{output: reporter}
}

// Detect parses payload and prints what the reply to it would need.
func (s *DetectService) Detect(payload []byte) (origin.Envelope, error) {
	env, err := origin.Parse(payload)
	if err != nil {
		return nil, apperrors.ErrMalformedEvent(err)
	}

	meta := env.Metadata()
	s.output.Successf("Detected origin %s", env.Origin())
	s.output.KeyValue("Multi-value", strconv.FormatBool(meta.MultiValue))
	for _, kv := range [][2]string{
		{"Route key", meta.RouteKey},
		{"Resource", meta.Resource},
		{"Stage", meta.Stage},
		{"Domain name", meta.DomainName},
		{"Connection ID", meta.ConnectionID},
	} {
		if kv[1] != "" {
			s.output.KeyValue(kv[0], kv[1])
		}
	}

	return env, nil
}
