package cmd

import (
	"os"

	"github.com/awalters-dev/courier/packages/output"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "courier",
	Short: "Send HTTP requests from the command line.",
	Long: `courier is a command line HTTP client built on typed requests,
ordered headers, and pluggable TLS trust. Send ad hoc requests or
replay request files, benchmark endpoints, and keep a local history
of everything you send.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		console := output.NewConsole(output.WithWriter(os.Stderr), output.WithNoColor(noColorFlag))
		console.RenderError(err)
		os.Exit(exitCodeFor(err))
	}
}

func init() {
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}
