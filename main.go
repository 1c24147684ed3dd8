// Package main is the entry point for the slackjira bot.
package main

import (
	"fmt"
	"os"

	"github.com/danielolaszy/slackjira/cmd"
	"github.com/danielolaszy/slackjira/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// main executes the root command and exits non-zero when it fails.
func main() {
	logging.Debug("starting slackjira", "version", version)

	if err := cmd.Execute(); err != nil {
		logging.Error("command execution failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
