package cmd

import (
	"runtime"

	"github.com/heavens/lambdahttp/internal/constants"
	"github.com/heavens/lambdahttp/internal/output"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the version of the CLI",
	Run: func(_ *cobra.Command, _ []string) {
		output.KeyValue("CLI version", *constants.GetVersion())
		output.KeyValue("Go version", runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
