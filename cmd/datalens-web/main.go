package main

import (
	"context"
	"embed"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OriginalDaemon/datalens/client"
)

//go:embed templates/* static/*
var content embed.FS

// sweepInterval is how often idle browser sessions are expired
const sweepInterval = time.Minute

func main() {
	// Load configuration
	config := LoadConfig(configPath())
	config.ApplyEnv(".env")

	// Initialize file logging
	if config.LogFile != "" {
		logPath, logCleanup, err := initLogging(config)
		if err != nil {
			// If logging init fails, continue with stderr only
			log.Printf("WARNING: Failed to initialize file logging: %v", err)
		} else {
			defer logCleanup()
			log.Printf("Logging to file: %s", logPath)
		}
	}

	log.Printf("Configuration loaded: API=%s, Port=%s, Request timeout=%ds",
		config.APIURL, config.Port, config.RequestTimeoutSeconds)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.NewClient(config.APIURL)
	api.HTTPClient.Timeout = config.RequestTimeout()

	gin.SetMode(gin.ReleaseMode)
	srv := newServer(ctx, config, api)
	router, err := srv.routes()
	if err != nil {
		log.Fatalf("Failed to set up routes: %v", err)
	}

	go srv.sessions.run(ctx, sweepInterval)
	defer srv.sessions.stopAll()

	addr := ":" + config.Port
	log.Printf("Starting datalens web UI on %s", addr)

	errs := make(chan error, 1)
	go func() {
		errs <- router.Run(addr)
	}()

	select {
	case err := <-errs:
		log.Printf("ERROR: web UI stopped: %v", err)
	case <-ctx.Done():
		log.Printf("Shutting down datalens web UI")
	}
}
