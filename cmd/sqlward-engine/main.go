// Copyright 2026 The Sqlward Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/sqlward/sqlward/lib/clock"
	"github.com/sqlward/sqlward/lib/config"
	"github.com/sqlward/sqlward/lib/credstore"
	"github.com/sqlward/sqlward/lib/reconcile"
	"github.com/sqlward/sqlward/lib/renewserver"
	"github.com/sqlward/sqlward/lib/sealed"
	"github.com/sqlward/sqlward/lib/secret"
	"github.com/sqlward/sqlward/lib/token"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet("sqlward-engine", pflag.ContinueOnError)
	configPath := flags.String("config", os.Getenv("SQLWARD_CONFIG"), "path to the engine config file")
	socketOverride := flags.String("socket", "", "override the renew socket path from the config file")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	if *configPath == "" {
		return fmt.Errorf("--config (or SQLWARD_CONFIG) is required")
	}

	loaded, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *socketOverride != "" {
		loaded.SocketPath = *socketOverride
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(loaded.LogLevel),
	}))

	store := credstore.New()
	if loaded.SeedBundlePath != "" {
		if err := seedStore(store, loaded, logger); err != nil {
			return fmt.Errorf("seeding credential store: %w", err)
		}
	}

	matcher := reconcile.NewLocationMatcher(loaded.MetastoreEndpoints, store, logger)
	reconciler := reconcile.New(store, matcher, logger)

	server := renewserver.New(loaded.SocketPath, logger)
	api := &renewserver.API{Reconciler: reconciler, Store: store, Logger: logger}
	api.Register(server)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sweepAging(ctx, store, loaded.Aging, clock.Real(), logger)

	logger.Info("sqlward-engine starting",
		"socket", loaded.SocketPath,
		"metastore_endpoints", strings.Join(loaded.MetastoreEndpoints, ","),
		"held_tokens", store.Len(),
	)

	return server.Serve(ctx)
}

// seedStore loads the initial token set from the provisioned bundle
// file. With an identity key configured, the file holds age
// ciphertext and is unsealed first; the plaintext (and the private
// key) live in mmap-backed buffers and are zeroed before returning.
func seedStore(store *credstore.Store, loaded *config.Config, logger *slog.Logger) error {
	raw, err := os.ReadFile(loaded.SeedBundlePath)
	if err != nil {
		return fmt.Errorf("reading seed bundle: %w", err)
	}
	encoded := strings.TrimSpace(string(raw))

	if loaded.IdentityPath != "" {
		identity, err := secret.ReadFromPath(loaded.IdentityPath)
		if err != nil {
			return fmt.Errorf("reading identity key: %w", err)
		}
		defer identity.Close()

		plaintext, err := sealed.Decrypt(encoded, identity)
		if err != nil {
			return fmt.Errorf("unsealing seed bundle: %w", err)
		}
		defer plaintext.Close()
		encoded = strings.TrimSpace(plaintext.String())
	}

	bundle, err := token.DecodeBundle(encoded)
	if err != nil {
		return err
	}
	store.Seed(bundle.Tokens)

	logger.Info("credential store seeded",
		"path", loaded.SeedBundlePath,
		"sealed", loaded.IdentityPath != "",
		"tokens", len(bundle.Tokens),
	)
	return nil
}

// sweepAging periodically logs tokens whose issue date has fallen
// behind the configured maximum age. Observability only: a gateway
// that stopped renewing shows up here long before queries start
// failing downstream.
func sweepAging(ctx context.Context, store *credstore.Store, aging config.AgingConfig, clk clock.Clock, logger *slog.Logger) {
	ticker := clk.NewTicker(aging.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			aged := store.Aging(clk.Now(), aging.MaxAge)
			if len(aged) > 0 {
				logger.Warn("tokens have not been renewed recently",
					"max_age", aging.MaxAge,
					"aliases", strings.Join(aged, ","),
				)
			}
		}
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
