// Command calcctl runs calculations and planning previews offline against YAML fixtures.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"print-calc/internal/service/calculation"
	"print-calc/internal/service/imposition"
	"print-calc/internal/storage/memory"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	fixtures string
	verbose  bool
}

func newRootCmd() *cobra.Command {
	var g globalFlags

	root := &cobra.Command{
		Use:           "calcctl",
		Short:         "Print quote calculator",
		Long:          "calcctl prices product templates and previews production planning against a YAML fixture file instead of the database.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&g.fixtures, "fixtures", "f", "", "YAML fixture file (required)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Log debug output to stderr")
	if err := root.MarkPersistentFlagRequired("fixtures"); err != nil {
		panic(fmt.Sprintf("failed to mark fixtures flag as required: %v", err))
	}

	root.AddCommand(newCalculateCmd(&g), newPlanCmd(&g))
	return root
}

func (g *globalFlags) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if g.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (g *globalFlags) open(log *slog.Logger) (*memory.Storage, *calculation.Engine, error) {
	store, err := memory.LoadFile(g.fixtures)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load fixtures: %w", err)
	}

	engine := calculation.NewEngine(log, store, imposition.NewGrid(0, 0), calculation.DefaultPolicy(), 4)
	return store, engine, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
