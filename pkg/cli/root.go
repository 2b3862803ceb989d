package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// BuildInfo carries the values injected at build time.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

// DefaultAdminPort is the admin API port used when --admin-port is not set.
const DefaultAdminPort = 4290

// NewRootCmd builds the command tree.
func NewRootCmd(info BuildInfo) *cobra.Command {
	if info.Version == "" {
		info.Version = "dev"
	}

	root := &cobra.Command{
		Use:   "portmock",
		Short: "portmock serves programmable mock HTTP endpoints on many ports",
		Long: `portmock runs mock HTTP listeners. Every listener owns a routing table of
mock entries that answer with a static response, a scripted response, a
reverse proxy to an upstream, or a long-lived chunked stream. Chunks published
to a stream are replayed to every client that attaches later.

Listeners and mocks come from a YAML, TOML or JSON config file and can be
changed at runtime through the admin API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(info),
		newValidateCmd(),
		newChunkCmd(),
		newVersionCmd(info),
	)
	return root
}

// Execute runs the root command with os.Args and exits non-zero on failure.
func Execute(info BuildInfo) {
	if err := NewRootCmd(info).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
