// Package cli implements the routegen command tree. Each command is a
// constructor so tests can build and execute commands in isolation.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ferro-labs/routegen/internal/logging"
	"github.com/ferro-labs/routegen/internal/version"
)

// Options holds global CLI options shared by all subcommands.
type Options struct {
	ManifestPath string
	LogLevel     string
	LogFormat    string
}

// NewRootCmd constructs the base CLI command tree.
func NewRootCmd() *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:           "routegen",
		Short:         "routegen generates LiteLLM proxy configuration from model intents",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logging.Setup(opts.LogLevel, opts.LogFormat)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ManifestPath, "manifest", "f", "routegen.yaml", "Path to the manifest file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", os.Getenv("LOG_LEVEL"), "Log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", os.Getenv("LOG_FORMAT"), "Log format: json or text")

	cmd.AddCommand(NewBuildCmd(opts))
	cmd.AddCommand(NewValidateCmd(opts))
	cmd.AddCommand(NewServeCmd(opts))
	cmd.AddCommand(NewProbeCmd(opts))
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
