package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/geocatalog/pkg/catalog"
)

// groupLoader is the SDK surface used by the commands, swapped in tests.
type groupLoader interface {
	Load(ctx context.Context, g catalog.Group) ([]catalog.Item, catalog.Summary, error)
}

// newLoader builds the SDK client for a command run.
var newLoader = func(opts ...catalog.Option) (groupLoader, error) {
	return catalog.New(opts...)
}

var verbose bool

var rootCmd = &cobra.Command{
	Use:           "geocatalogctl",
	Short:         "Load 3D and sensor catalog items from remote servers",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log load progress to stderr")
}

func commandLogger(cmd *cobra.Command) *slog.Logger {
	if !verbose {
		return nil
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
}
