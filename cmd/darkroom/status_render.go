package main

import (
	"os"

	"github.com/mattn/go-isatty"

	"darkroom/internal/queue"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func colorStatus(status string, colorize bool) string {
	if !colorize {
		return status
	}
	switch queue.Status(status) {
	case queue.StatusPending:
		return ansiYellow + status + ansiReset
	case queue.StatusDone:
		return ansiGreen + status + ansiReset
	case queue.StatusCancelled:
		return ansiRed + status + ansiReset
	default:
		return status
	}
}
