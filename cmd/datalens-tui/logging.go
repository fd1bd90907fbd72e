package main

import (
	"io"
	"log"

	tea "github.com/charmbracelet/bubbletea"
)

// initLogging sends the standard logger to the configured file. The
// terminal belongs to the UI, so without a file nothing is logged.
func initLogging(config *Config) (func(), error) {
	if config.LogFile == "" {
		log.SetOutput(io.Discard)
		return func() {}, nil
	}

	f, err := tea.LogToFile(config.LogFile, "datalens-tui")
	if err != nil {
		return nil, err
	}
	return func() { f.Close() }, nil
}
