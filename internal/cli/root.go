// Package cli implements the backoffice command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cinehub/backoffice/internal/config"
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// NewRootCommand builds the command tree. Without a subcommand the server
// is started.
func NewRootCommand() *cobra.Command {
	var configFlag string
	load := func() (*config.Config, error) {
		return config.Load(configFlag)
	}

	serveCmd := newServeCommand(load)

	rootCmd := &cobra.Command{
		Use:           "backoffice",
		Short:         "CineHub admin back office",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serveCmd.RunE,
	}
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (TOML)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(newUserCommand(load))
	return rootCmd
}
