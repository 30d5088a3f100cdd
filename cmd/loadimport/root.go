package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	_ "github.com/JonMunkholm/loadimport/internal/core/formats" // Register broker and TMS formats
	"github.com/JonMunkholm/loadimport/internal/logging"
)

type rootOptions struct {
	LogLevel string
	JSON     bool
}

func newRootCmd() *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:           "loadimport",
		Short:         "Detect, preview and commit freight load spreadsheets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			_ = godotenv.Load()
			logging.SetupWriter(cmd.ErrOrStderr(), opts.LogLevel, "text")
		},
	}
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "log level: debug, info, warn, error")
	cmd.PersistentFlags().BoolVar(&opts.JSON, "json", false, "print results as JSON")

	cmd.AddCommand(newDetectCmd(&opts))
	cmd.AddCommand(newPreviewCmd(&opts))
	cmd.AddCommand(newCommitCmd(&opts))
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
