// cmd/cyclebench/main.go
package main

import (
	cyclebench "github.com/mwiater/cyclebench/internal/commands"
)

// Populated at build time with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	setVersionInfo = cyclebench.SetVersionInfo
	executeCmd     = cyclebench.Execute
)

// main starts the cyclebench CLI by delegating to the cobra root command.
func main() {
	setVersionInfo(version, commit, date)
	executeCmd()
}
