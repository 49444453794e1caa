// Package main is the entry point for the s2d relay server.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jizi-network/s2d/internal/config"
	"github.com/jizi-network/s2d/internal/notifier"
	"github.com/jizi-network/s2d/internal/notifier/discord"
	"github.com/jizi-network/s2d/internal/notifier/stdout"
	"github.com/jizi-network/s2d/internal/server"
)

// banner is printed at startup.
var banner = []string{
	`       ___     __`,
	`   ___ |_  |___/ /`,
	`  (_-</ __// _  / SendGrid to Discord`,
	` /___/____/\_,_/`,
}

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file (optional)")
	flag.Parse()

	// Load configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	setupLogger(cfg.Logging.Level)

	for _, line := range banner {
		slog.Info(line)
	}

	if cfg.PassphraseGenerated() {
		slog.Warn("no passphrase configured, generated one for this run",
			"passphrase", cfg.Server.Passphrase,
		)
	}

	// Select outbound delivery backend
	backend := selectNotifier(cfg)

	srv := server.New(server.Options{
		ListenAddr: cfg.Addr(),
		Config:     cfg,
		Notifier:   backend,
	})

	slog.Info("starting s2d",
		"listen", cfg.Addr(),
		"notifier", backend.Name(),
		"recipients", len(cfg.Webhook.URL),
	)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		sig := <-sigCh
		slog.Info("received signal, initiating shutdown", "signal", sig)
		cancel()
	}()

	// Serve until the context is cancelled
	if err := srv.ListenAndServe(ctx); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("s2d stopped")
}

// loadConfig loads configuration from the specified path (YAML + env
// override) or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// setupLogger configures the global slog logger with JSON output and
// the specified log level.
func setupLogger(level string) {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// selectNotifier chooses the outbound delivery backend based on
// configuration.
func selectNotifier(cfg *config.Config) notifier.Notifier {
	switch cfg.Webhook.Driver {
	case "discord":
		return discord.New()
	case "stdout":
		slog.Info("using stdout notifier, notifications will not be delivered")
		return stdout.New()
	default:
		slog.Error("unknown webhook driver", "driver", cfg.Webhook.Driver)
		os.Exit(1)
		return nil
	}
}
