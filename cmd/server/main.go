// Package main is the entry point for the hardship board server.
//
// MAIN PACKAGE IN GO:
// main should stay minimal. Its job is to:
//  1. Read configuration (config.yml and environment, via viper)
//  2. Create the logger
//  3. Start the application
//
// All actual logic lives in imported packages (internal/server,
// internal/service, ...), which keeps it testable and reusable. The client
// board CLI in cmd/board, for example, reuses the same service.
package main

import (
	"log/slog"
	"os"

	"github.com/sakif/hardship-board/internal/config"
	"github.com/sakif/hardship-board/internal/server"
)

func main() {
	// === 1. READ CONFIGURATION ===
	// config.Load reads an optional config.yml from the working directory,
	// then lets environment variables (PORT, STORE_DRIVER, ...) override it.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	// Log levels (from least to most severe): Debug → Info → Warn → Error.
	// LOG_LEVEL picks the minimum; the default is info.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))

	// === 3. CREATE AND START THE SERVER ===
	srv, err := server.New(*cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
