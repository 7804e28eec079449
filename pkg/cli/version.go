package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// VersionOutput represents JSON output format
type VersionOutput struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go"`
	OS      string `json:"os"`
	Arch    string `json:"arch"`
}

// buildVersion fills in version and VCS details from the build info when
// they were not injected at link time.
func buildVersion() VersionOutput {
	out := VersionOutput{
		Version: Version,
		Commit:  Commit,
		Date:    BuildDate,
		Go:      runtime.Version(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}
	if out.Version == "dev" && info.Main.Version != "" {
		out.Version = info.Main.Version
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if out.Commit == "none" {
				out.Commit = setting.Value
			}
		case "vcs.time":
			if out.Date == "unknown" {
				out.Date = setting.Value
			}
		case "vcs.modified":
			if setting.Value == "true" {
				out.Commit += "-dirty"
			}
		}
	}
	return out
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show reqlab version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := buildVersion()
		w := cmd.OutOrStdout()
		return printResult(w, out, func() {
			v := out.Version
			if len(v) > 0 && v[0] != 'v' && v != "dev" && v != "(devel)" {
				v = "v" + v
			}
			fmt.Fprintf(w, "reqlab %s (%s, %s)\n", v, out.Commit, out.Date)
			fmt.Fprintf(w, "%s %s/%s\n", out.Go, out.OS, out.Arch)
		})
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
