package main

import (
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

// setupLog silences logging by default. With PARLEY_DEBUG and
// PARLEY_LOGFILE both set, debug logs go to the given file, which is the
// only safe place for them while the TUI owns the terminal.
func setupLog() (func() error, error) {
	log.SetOutput(io.Discard)
	if debug, logFile := os.Getenv("PARLEY_DEBUG"), os.Getenv("PARLEY_LOGFILE"); debug != "" && logFile != "" {
		f, err := tea.LogToFileWith(logFile, "parley", log.Default())
		if err != nil {
			return nil, err //nolint:wrapcheck
		}
		log.SetLevel(log.DebugLevel)
		return f.Close, nil
	}
	return func() error { return nil }, nil
}
