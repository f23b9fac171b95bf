package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/mapalloc/alloc"
)

func init() {
	rootCmd.AddCommand(newStrategiesCmd())
}

func newStrategiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List the fit strategies",
		Long: `The strategies command lists the recognised fit strategies and marks the
one ALLOCATOR_ALGORITHM currently selects.

Example:
  memctl strategies
  ALLOCATOR_ALGORITHM=best_fit memctl strategies --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStrategies()
		},
	}
}

type strategyInfo struct {
	Name     string `json:"name"`
	Selected bool   `json:"selected"`
}

func runStrategies() error {
	current, err := alloc.ParseStrategy(os.Getenv(alloc.EnvAlgorithm))
	if err != nil {
		printVerbose("%s: %v\n", alloc.EnvAlgorithm, err)
	}

	var out []strategyInfo
	for _, s := range alloc.Strategies() {
		out = append(out, strategyInfo{Name: s.String(), Selected: s == current})
	}

	if jsonOut {
		return printJSON(out)
	}
	for _, s := range out {
		mark := " "
		if s.Selected {
			mark = "*"
		}
		printInfo("%s %s\n", mark, s.Name)
	}
	return nil
}
