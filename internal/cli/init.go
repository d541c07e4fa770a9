// Package cli wires configuration, storage and the ledger together and
// implements the kharcha subcommands.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"kharcha/internal/backend"
	"kharcha/internal/cache"
	"kharcha/internal/config"
	"kharcha/internal/core"
	"kharcha/internal/ledger"
	"kharcha/internal/log"
	"kharcha/internal/persistence"
)

// SetupLogger initializes structured logging at the given level and sets
// it as the default logger. Logs go to stderr; stdout carries command
// output.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	cfg.Component = log.ComponentCLI
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local use.
// Errors are ignored silently as the file is optional.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig(logger *log.Logger) (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		return nil, err
	}
	return cfg, nil
}

// OpenLedger creates the configured store and loads the ledger from it.
// The returned cleanup waits for pending notifications and releases the
// store.
func OpenLedger(ctx context.Context, cfg *config.Config, logger *log.Logger, opts ...ledger.Option) (*ledger.Ledger, func() error, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, nil, err
	}

	base := []ledger.Option{
		ledger.WithLogger(logger),
		ledger.WithSummaryCache(cache.NewLRUCache[core.MonthSummary](cfg.SummaryCacheSize, cfg.SummaryCacheTTL)),
		ledger.WithNotifier(NewLogNotifier(logger)),
	}
	l := ledger.New(ctx, persistence.New(res.Store, logger), append(base, opts...)...)

	cleanup := func() error {
		l.Wait()
		return res.Close()
	}
	return l, cleanup, nil
}

// SignalContext returns a context that is cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// Main is the whole program behind cmd/kharcha. It returns the process
// exit code.
func Main(args []string) int {
	LoadEnvFile()
	logger := SetupLogger(os.Getenv("LOG_LEVEL"))

	cfg, err := LoadAndValidateConfig(logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	ctx, cancel := SignalContext(context.Background(), logger)
	defer cancel()

	l, cleanup, err := OpenLedger(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open ledger", log.FieldError, err)
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer func() {
		if err := cleanup(); err != nil {
			logger.Warn("Cleanup failed", log.FieldError, err)
		}
	}()

	app := &App{Ledger: l, Out: os.Stdout, Err: os.Stderr, In: os.Stdin, Logger: logger}
	err = app.Run(ctx, args)
	code := ExitCode(err)
	if code != 0 {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	return code
}
