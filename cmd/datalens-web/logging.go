package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

// initLogging tees the standard logger to a file. The gin request log
// follows through log.Writer().
// Returns the log file path and a cleanup function
func initLogging(config *Config) (string, func(), error) {
	logPath := config.LogFile
	if logPath == "" {
		timestamp := time.Now().Format("20060102-150405")
		logPath = fmt.Sprintf("datalens-web-%s-%d.log", timestamp, os.Getpid())
	}

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create log file %s: %w", logPath, err)
	}

	// Keep stderr so we still see output in console
	log.SetOutput(io.MultiWriter(os.Stderr, logFile))

	cleanup := func() {
		log.SetOutput(os.Stderr)
		logFile.Close()
	}

	return logPath, cleanup, nil
}
