// portmock CLI - programmable mock HTTP listeners
package main

import "github.com/getmockd/portmock/pkg/cli"

// Build-time variables set via ldflags
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	cli.Execute(cli.BuildInfo{Version: Version, Commit: Commit, BuildDate: BuildDate})
}
