package main

import (
	"errors"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "notecheck",
		Short:         "Contract checks and a reference service for the notes API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return configureLogger(opts.logLevel, opts.logFormat)
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format (json or console)")

	cmd.AddCommand(
		newServeCmd(),
		newCheckCmd(),
		newTokenCmd(),
	)

	return cmd
}

// errChecksFailed marks a run that completed with failing scenarios.
var errChecksFailed = errors.New("contract checks failed")

func exitCode(err error) int {
	if errors.Is(err, errChecksFailed) {
		return 1
	}
	return 2
}
