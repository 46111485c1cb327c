package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/heavens/lambdahttp/internal/config"
	"github.com/heavens/lambdahttp/internal/constants"
	"github.com/heavens/lambdahttp/internal/logger"
	"github.com/heavens/lambdahttp/internal/output"

	"github.com/spf13/cobra"
)

type configCtxKey struct{}

var (
	debug        bool
	configPath   string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   constants.ProjectName,
	Short: constants.ProjectName,
	Long: fmt.Sprintf(`%s - %s
Serve one HTTP handler from every Lambda HTTP trigger`,
		constants.ProjectName, *constants.GetVersion()),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		switch constants.OutputFormat(outputFormat) {
		case constants.OutputJSON, constants.OutputYAML:
		default:
			return fmt.Errorf("invalid output format %q (use json or yaml)", outputFormat)
		}

		var (
			cfg *config.Config
			err error
		)
		if configPath != "" {
			cfg, err = config.LoadFile(configPath)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		logLevel := cfg.GetLogLevel()
		if debug {
			logLevel = slog.LevelDebug
		}
		log := logger.Initialize(constants.CLI, logLevel)
		log.Debug("configuration loaded", "context", map[string]any{
			"origin":      cfg.Origin,
			"listen_addr": cfg.ListenAddr,
			"stage":       cfg.Stage,
		})

		cmd.SetContext(context.WithValue(cmd.Context(), configCtxKey{}, cfg))
		return nil
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		output.Errorf("%v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debugging logs")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Configuration file (default ~/"+constants.ConfigDirName+"/"+constants.ConfigFileName+")")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", string(constants.OutputJSON),
		"Output format: json or yaml")
}

// getConfigFromContext retrieves the config from the command context
func getConfigFromContext(cmd *cobra.Command) (*config.Config, error) {
	cfg, ok := cmd.Context().Value(configCtxKey{}).(*config.Config)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("config not found in context")
	}
	return cfg, nil
}

// readEvent reads a trigger envelope from path, or from stdin when path is "-".
func readEvent(path string) ([]byte, error) {
	var (
		payload []byte
		err     error
	)
	if path == "-" {
		payload, err = io.ReadAll(os.Stdin)
	} else {
		payload, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read event: %w", err)
	}
	return payload, nil
}

// RootCmd returns the root command for use by tools like doc generators.
func RootCmd() *cobra.Command {
	return rootCmd
}
