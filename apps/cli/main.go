package main

import "github.com/awalters-dev/courier/apps/cli/cmd"

// Version information (injected via ldflags at build time)
var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	cmd.Execute(version, buildTime)
}
