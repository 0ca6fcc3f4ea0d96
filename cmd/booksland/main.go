package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/booksland/booksland/internal/config"
	"github.com/booksland/booksland/internal/logging"
	"github.com/booksland/booksland/internal/services"
)

const defaultConfigDir = "config"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	configDir, rest := splitConfigDir(args)

	cfg, err := config.Load(configDir, rest)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := logging.Initialize(cfg.Logging); err != nil {
		return err
	}
	defer func() {
		if err := logging.Shutdown(); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}()

	logger := slog.Default()
	logger.Info("Starting Booksland...", "port", cfg.Server.Port, "notify", cfg.Notify.Enabled)

	mgr := services.NewManager(cfg, logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := mgr.Init(initCtx); err != nil {
		shutdown(mgr, cfg.Server.ShutdownTimeout)
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	if err := mgr.Start(bgCtx); err != nil {
		shutdown(mgr, cfg.Server.ShutdownTimeout)
		return fmt.Errorf("failed to start services: %w", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("Shutting down...", "signal", sig.String())

	bgCancel()
	shutdown(mgr, cfg.Server.ShutdownTimeout)

	logger.Info("Booksland stopped")
	return nil
}

func shutdown(mgr *services.Manager, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	mgr.Shutdown(ctx)
}

// splitConfigDir pulls --config out of args. Every other argument is left for
// the configuration keys.
func splitConfigDir(args []string) (string, []string) {
	dir := defaultConfigDir
	rest := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--config" && i+1 < len(args):
			dir = args[i+1]
			i++
		case strings.HasPrefix(args[i], "--config="):
			dir = strings.TrimPrefix(args[i], "--config=")
		default:
			rest = append(rest, args[i])
		}
	}
	return dir, rest
}
