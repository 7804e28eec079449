// reqlab CLI - cURL conversion, code snippets and the reqlab HTTP API
package main

import "github.com/reqlab/reqlab/pkg/cli"

// Build-time variables set via ldflags
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	cli.Version = Version
	cli.Commit = Commit
	cli.BuildDate = BuildDate
	cli.Execute()
}
