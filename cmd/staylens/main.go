// Package main is the entry point for the staylens CLI.
package main

import (
	"os"

	"github.com/jmylchreest/staylens/cmd/staylens/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
