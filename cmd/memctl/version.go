package main

import (
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X main.version=... -X main.commit=... -X main.date=...".
// Empty values fall back to the module and VCS data embedded by the Go
// toolchain.
var (
	version string
	commit  string
	date    string
)

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Built     string `json:"built"`
	GoVersion string `json:"go_version"`
}

func buildVersion() versionInfo {
	v := versionInfo{Version: version, Commit: commit, Built: date}
	if info, ok := debug.ReadBuildInfo(); ok {
		v.GoVersion = info.GoVersion
		if v.Version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			v.Version = info.Main.Version
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if v.Commit == "" {
					v.Commit = s.Value
				}
			case "vcs.time":
				if v.Built == "" {
					v.Built = s.Value
				}
			}
		}
	}
	if v.Version == "" {
		v.Version = "dev"
	}
	if v.Commit == "" {
		v.Commit = "none"
	}
	if v.Built == "" {
		v.Built = "unknown"
	}
	return v
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVersion()
	},
}

func runVersion() error {
	v := buildVersion()
	if jsonOut {
		return printJSON(v)
	}
	printInfo("memctl %s\n", v.Version)
	printInfo("  commit: %s\n", v.Commit)
	printInfo("  built: %s\n", v.Built)
	if v.GoVersion != "" {
		printInfo("  go: %s\n", v.GoVersion)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
