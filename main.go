// Copyright (c) 2025 the councilvote authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/scvote/councilvote/auditlog"
	"github.com/scvote/councilvote/cliparse"
	"github.com/scvote/councilvote/docstore"
	"github.com/scvote/councilvote/identity"
	"github.com/scvote/councilvote/ipinfo"
	"github.com/scvote/councilvote/models"
	"github.com/scvote/councilvote/router"
)

func main() {
	var err error

	// Load .env if present; real env vars win
	_ = godotenv.Load()

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	setupLogging(cfg)

	// Open the document store
	store, err := docstore.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()

	// Verify connection
	if err := store.Ping(ctx); err != nil {
		slog.Error("database ping failed", "error", err)
		os.Exit(1)
	}

	// Create schema (tables)
	if err := store.CreateSchema(ctx); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	if err := seedSettings(ctx, store); err != nil {
		slog.Error("settings seed failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready")

	// Wire services
	ipClient := ipinfo.NewClient(cfg.IPLookupURL)
	svc := identity.NewService(store, ipClient)
	audit := auditlog.NewLogger(store, ipClient)

	// Create router
	r := router.NewRouter(store, cfg, svc, audit)

	// Create server
	server := http.Server{
		Handler: r,
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		server.Close()
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}

// setupLogging switches slog to a rotating JSON file when LOG_FILE is set,
// leaving the default text handler on stderr otherwise.
func setupLogging(cfg cliparse.Config) {
	if cfg.LogFile == "" {
		return
	}
	out := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    32, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(out, nil)))
}

// seedSettings creates the config document on first boot so counter updates
// and the public config endpoint always have a document to work with.
func seedSettings(ctx context.Context, store *docstore.Store) error {
	_, err := store.Get(ctx, models.CollectionSettings, models.SettingsConfig)
	if err == nil {
		return nil
	}
	if err != docstore.ErrNotFound {
		return err
	}
	return store.Set(ctx, models.CollectionSettings, models.SettingsConfig, map[string]any{
		"abstain": 0,
		"spoiled": 0,
	})
}
