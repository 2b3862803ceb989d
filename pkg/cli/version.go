package cli

import (
	"encoding/json"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// VersionOutput is the JSON form of the version command.
type VersionOutput struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go"`
	OS      string `json:"os"`
	Arch    string `json:"arch"`
}

func newVersionCmd(info BuildInfo) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := resolveVersion(info)
			w := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			printf(w, "portmock %s (commit %s, built %s)\n", out.Version, out.Commit, out.Date)
			printf(w, "%s %s/%s\n", out.Go, out.OS, out.Arch)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	return cmd
}

func resolveVersion(info BuildInfo) VersionOutput {
	out := VersionOutput{
		Version: info.Version,
		Commit:  info.Commit,
		Date:    info.BuildDate,
		Go:      runtime.Version(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
	}
	if out.Commit == "" {
		out.Commit = "none"
	}
	if out.Date == "" {
		out.Date = "unknown"
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		if out.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			out.Version = bi.Main.Version
		}
		for _, setting := range bi.Settings {
			switch setting.Key {
			case "vcs.revision":
				if out.Commit == "none" {
					out.Commit = setting.Value
				}
			case "vcs.time":
				if out.Date == "unknown" {
					out.Date = setting.Value
				}
			}
		}
	}
	return out
}
