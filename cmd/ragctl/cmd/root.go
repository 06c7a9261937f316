// Package cmd contains the ragctl commands.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"aihub/aiservice/internal/app"
	"aihub/aiservice/internal/config"
	"aihub/aiservice/internal/logger"
)

var (
	verbose bool
	cfg     *config.Config

	// loadConfig is replaced in tests.
	loadConfig = config.Load
)

var rootCmd = &cobra.Command{
	Use:   "ragctl",
	Short: "Operate the document Q&A service from the command line",
	Long: `ragctl runs the ingestion and answer pipelines in-process against the
configured database and vector index.

Example usage:
  ragctl ingest --file-id f1 --user-id u1 --document-id d1 report.pdf
  ragctl ask --user-id u1 --document-id d1 "What is the refund window?"
  ragctl peek --limit 5`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd.ErrOrStderr())
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func initConfig(logOut io.Writer) error {
	level := "info"
	if verbose {
		level = "debug"
	}

	c, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !verbose && c.LogLevel != "" {
		level = c.LogLevel
	}
	slog.SetDefault(logger.New(logOut, level))
	cfg = c
	return nil
}

// withDeps bootstraps the backing services for the duration of fn.
func withDeps(ctx context.Context, fn func(*app.Dependencies) error) error {
	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer deps.Close()
	return fn(deps)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
