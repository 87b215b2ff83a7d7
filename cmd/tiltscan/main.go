// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Command tiltscan scans for Tilt hydrometers and delivers per-window
// aggregates to a collection endpoint.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/henskjold73/hydropi/config"
	"github.com/lmittmann/tint"
)

func main() {
	configFile := flag.String("config", "", "YAML or TOML configuration file")
	envFile := flag.String("env", ".env", "dotenv file with secrets")
	flag.Parse()

	cfg, err := config.Load(*configFile, *envFile)
	if err != nil {
		slog.New(tint.NewHandler(os.Stderr, nil)).
			Error("failed to load configuration", "error", err)
		os.Exit(2)
	}

	level, _ := cfg.Log.SlogLevel()
	log := slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: level,
	}))

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	app, err := NewApplication(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.Run(ctx); err != nil {
		log.Error("application stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("shut down")
}
