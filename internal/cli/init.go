// Package cli wires configuration, logging, the ledger backend and the report
// outputs together for the weekbudget commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"weekbudget/internal/config"
	"weekbudget/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as the file is optional.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the logger described by cfg and makes it the default.
// A nil cfg yields the default text logger at info level.
func SetupLogger(cfg *config.Config) (*log.Logger, error) {
	lc := log.DefaultConfig()
	if cfg != nil {
		level, err := log.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		lc.Level = level
		lc.Format = cfg.LogFormat
	}
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger, nil
}

// LoadAndValidateConfig resolves the config path, loads it and validates it.
func LoadAndValidateConfig(flagPath string) (*config.Config, error) {
	path, err := config.ResolvePath(flagPath)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// InterruptContext returns a context cancelled on SIGINT or SIGTERM.
func InterruptContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
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

// Fatal logs err and exits with status 1.
func Fatal(logger *log.Logger, msg string, err error) {
	if logger == nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	} else {
		logger.Error(msg, log.FieldError, err)
	}
	os.Exit(1)
}
