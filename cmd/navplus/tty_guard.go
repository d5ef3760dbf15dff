package main

import (
	"os"

	"golang.org/x/term"
)

// init runs before Bubble Tea or Lip Gloss touch the terminal.
//
// Termenv probes the terminal background with OSC/DSR queries when styles
// are first used. For commands that only print, and for piped output, the
// replies would land in the output, so those runs are marked non-interactive
// with CI=1, which disables the probing.
func init() {
	if os.Getenv("CI") != "" {
		return
	}
	if !shouldSuppressTTYQueries(os.Args[1:], term.IsTerminal(int(os.Stdout.Fd()))) {
		return
	}
	_ = os.Setenv("CI", "1")
}

func shouldSuppressTTYQueries(args []string, stdoutTTY bool) bool {
	if !stdoutTTY {
		return true
	}
	for _, arg := range args {
		switch arg {
		case "--version", "-v", "--help", "-h":
			return true
		case "browse":
			return false
		}
	}
	return true
}
