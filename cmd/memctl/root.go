package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/mapalloc/alloc"
	"github.com/joshuapare/mapalloc/internal/logger"
)

var (
	// Global flags
	verbose  bool
	quiet    bool
	jsonOut  bool
	strategy string
	scribble bool
)

var rootCmd = &cobra.Command{
	Use:   "memctl",
	Short: "Drive and inspect the page-backed allocator",
	Long: `memctl exercises the page-backed block allocator. It replays allocation
traces, runs concurrent stress workloads and prints the resulting memory map
and allocator statistics.

The fit strategy and sentinel fill default to ALLOCATOR_ALGORITHM and
ALLOCATOR_SCRIBBLE; the --strategy and --scribble flags override them.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output and debug logging")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().
		StringVarP(&strategy, "strategy", "s", "", "Fit strategy: first_fit, best_fit or worst_fit")
	rootCmd.PersistentFlags().BoolVar(&scribble, "scribble", false, "Fill fresh payloads with 0xAA")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initLogging routes allocator logs to stderr. --verbose forces debug level,
// otherwise ALLOCATOR_LOG decides.
func initLogging() {
	opts := logger.FromEnv()
	if verbose {
		opts.Enabled = true
		opts.Level = slog.LevelDebug
	}
	if quiet {
		opts.Enabled = false
	}
	logger.Init(opts)
}

// newAllocator builds an allocator from the environment and the global flags.
func newAllocator() (*alloc.Allocator, error) {
	cfg := alloc.ConfigFromEnv()
	if strategy != "" {
		s, err := alloc.ParseStrategy(strategy)
		if err != nil {
			return nil, err
		}
		cfg.Strategy = s
	}
	if cfg.Strategy == alloc.StrategyUnknown {
		return nil, fmt.Errorf("%w: check %s", alloc.ErrUnknownStrategy, alloc.EnvAlgorithm)
	}
	if scribble {
		cfg.Scribble = true
	}
	cfg.Logger = logger.L
	return alloc.New(cfg), nil
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
