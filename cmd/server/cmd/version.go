package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// Release builds stamp these with -ldflags "-X".
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

type buildInfo struct {
	Version string
	Commit  string
	Date    string
	Go      string
	Arch    string
}

// currentBuild reports the stamped values, falling back to the VCS data
// the Go toolchain embeds when the linker flags were not set.
func currentBuild() buildInfo {
	info := buildInfo{
		Version: Version,
		Commit:  GitCommit,
		Date:    BuildDate,
		Go:      runtime.Version(),
		Arch:    runtime.GOOS + "/" + runtime.GOARCH,
	}
	stamped, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range stamped.Settings {
		switch {
		case s.Key == "vcs.revision" && info.Commit == "unknown":
			info.Commit = shortCommit(s.Value)
		case s.Key == "vcs.time" && info.Date == "unknown":
			info.Date = s.Value
		}
	}
	return info
}

func shortCommit(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

func newVersionCommand() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := currentBuild()
			if short {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), info.Version)
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 1, ' ', 0)
			fmt.Fprintln(w, "EventDesk")
			fmt.Fprintf(w, "Version:\t%s\n", info.Version)
			fmt.Fprintf(w, "Git commit:\t%s\n", info.Commit)
			fmt.Fprintf(w, "Build date:\t%s\n", info.Date)
			fmt.Fprintf(w, "Go version:\t%s\n", info.Go)
			fmt.Fprintf(w, "Platform:\t%s\n", info.Arch)
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "print only the version number")
	return cmd
}
