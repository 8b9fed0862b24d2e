package main

import (
	"os"

	"crmstack/cmd/cli"
	"crmstack/cmd/tui"

	"crmstack/internal/logger"
)

func main() {
	// If no arguments (or just the program name) are provided, run the TUI.
	// Otherwise, run the CLI (which will handle the arguments).
	if len(os.Args) <= 1 {
		logger.InitLogger(true)
		tui.RunTUI()
	} else {
		logger.InitLogger(false)
		cli.RunCLI()
	}
}
