package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
	"timeline/infrastructure/http/server"
	"timeline/observability"
	"timeline/repositories"
	"timeline/services"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"go.uber.org/multierr"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
	}
	os.Exit(code)
}

// run owns every resource so that deferred cleanup executes before main exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Context & Signals, before any long-running setup
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Storage, schema ensured before any request is accepted
	repository, err := prepareStorage(ctx, config, log)
	if err != nil {
		if ctx.Err() != nil {
			log.Info("Shutdown signal received during startup", "error", err)
			return exitOK, nil
		}
		return exitRuntime, err
	}
	defer func() {
		log.Info("Closing storage...", "driver", config.StorageDriver)
		if err := repository.Close(); err != nil {
			log.Error("Storage close failed", "error", err)
		}
	}()

	// 4. HTTP server
	postService := services.NewPostService(log, repository)
	health := observability.NewHealthReporter(log, repository)
	app := server.NewApp(server.AppConfig{
		BodyLimit: config.BodyLimit,
		StaticDir: config.StaticDir,
	}, log, postService, health)

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", config.Address(), "driver", config.StorageDriver, "at", time.Now().UTC())
		if err := app.Listen(config.Address()); err != nil {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 5. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 6. Final Cleanup
	log.Info("Shutting down gracefully...")
	if err := app.ShutdownWithTimeout(config.ShutdownTimeout); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}
	log.Info("Program stopped cleanly")
	return exitOK, nil
}

// prepareStorage opens and initializes the configured repository. On any
// failure, including cancellation of ctx, the repository is closed again.
func prepareStorage(ctx context.Context, config Config, log *slog.Logger) (repositories.IPostRepository, error) {
	repository, err := openRepository(ctx, config, log)
	if err != nil {
		return nil, err
	}
	if err = ctx.Err(); err == nil {
		err = repository.Init(ctx)
	}
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("storage initialization failed: %w", multierr.Append(err, repository.Close()))
	}
	return repository, nil
}

func openRepository(ctx context.Context, config Config, log *slog.Logger) (repositories.IPostRepository, error) {
	switch config.StorageDriver {
	case driverMySQL:
		repository, err := repositories.OpenMySQLPostRepository(config.MySQLDSN, log)
		if err != nil {
			return nil, fmt.Errorf("database opening failed: %w", err)
		}
		if err = repository.Ping(ctx); err != nil {
			return nil, fmt.Errorf("database unreachable: %w", multierr.Append(err, repository.Close()))
		}
		return repository, nil
	default:
		repository, err := repositories.OpenBadgerPostRepository(buildBadgerOpts(ctx, config, log), log)
		if err != nil {
			return nil, fmt.Errorf("database opening failed: %w", err)
		}
		return repository, nil
	}
}

func buildBadgerOpts(ctx context.Context, config Config, logger *slog.Logger) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG)
	} else {
		options = options.WithLoggingLevel(badger.WARNING)
	}
	return options
}
