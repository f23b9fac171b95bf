package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/mapalloc/alloc"
)

func init() {
	rootCmd.AddCommand(newStatsCmd())
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <trace>",
		Short: "Replay a trace and show allocator statistics",
		Long: `The stats command replays a trace without printing the memory map and
reports the allocator counters: calls, reuse, splits, coalesces, regions and
bytes.

Example:
  memctl stats session.trace
  memctl stats session.trace --strategy worst_fit --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(args)
		},
	}
}

func runStats(args []string) error {
	a, err := replayFile(args[0], nil)
	if err != nil {
		return err
	}
	st := a.Stats()

	if jsonOut {
		return printJSON(st)
	}

	printInfo("\nAllocator Statistics: %s (%s)\n", args[0], a.Strategy())
	printInfo("%s\n\n", strings.Repeat("=", 40))
	printStats(st, a.Regions())
	return nil
}

func printStats(st alloc.Stats, regions int) {
	printInfo("Calls:\n")
	printInfo("  Alloc: %s (failed %s)\n", formatNumber(st.AllocCalls), formatNumber(st.FailedAllocs))
	printInfo("  Calloc: %s\n", formatNumber(st.CallocCalls))
	printInfo("  Realloc: %s (in place %s)\n", formatNumber(st.ReallocCalls), formatNumber(st.ReallocInPlace))
	printInfo("  Free: %s\n\n", formatNumber(st.FreeCalls))

	printInfo("Blocks:\n")
	printInfo("  Reused: %s\n", formatNumber(st.ReuseHits))
	printInfo("  Splits: %s\n", formatNumber(st.SplitCount))
	printInfo("  Coalesced: %s forward, %s backward\n\n",
		formatNumber(st.CoalesceForward), formatNumber(st.CoalesceBackward))

	printInfo("Regions:\n")
	printInfo("  Live: %s\n", formatNumber(regions))
	printInfo("  Mapped: %s, unmapped %s, failures %s\n",
		formatNumber(st.RegionsMapped), formatNumber(st.RegionsUnmapped), formatNumber(st.MapFailures))
	printInfo("  Bytes mapped: %s (peak %s)\n", formatBytes(st.BytesMapped), formatBytes(st.PeakBytesMapped))
	printInfo("  Bytes in use: %s\n", formatBytes(st.BytesInUse))
}
