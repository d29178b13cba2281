package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Tomlord1122/todos-api/internal/config"
	"github.com/Tomlord1122/todos-api/internal/database"
	"github.com/Tomlord1122/todos-api/internal/logger"
	"github.com/Tomlord1122/todos-api/internal/metrics"
	"github.com/Tomlord1122/todos-api/internal/repository"
	"github.com/Tomlord1122/todos-api/internal/server"
	"github.com/Tomlord1122/todos-api/internal/service"
)

func gracefulShutdown(cfg *config.Config, apiServer *http.Server, dbService database.Service, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	slog.Info("shutting down gracefully, press Ctrl+C again to force")
	stop()

	ctxTimeout, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout.Duration)
	defer cancel()
	if err := apiServer.Shutdown(ctxTimeout); err != nil {
		slog.Error("server forced to shutdown", slog.Any("error", err))
	}

	if dbService != nil {
		if err := dbService.Close(); err != nil {
			slog.Error("failed to close database", slog.Any("error", err))
		}
	}

	slog.Info("server exiting")
	done <- true
}

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.SetupDefault(os.Stdout, logger.ParseLevel(cfg.LogLevel))

	var (
		todoRepo  repository.TodoRepository
		health    server.HealthChecker
		dbService database.Service
	)
	switch cfg.Storage {
	case config.StorageMemory:
		mem := repository.NewMemoryTodoRepository()
		todoRepo, health = mem, mem
		log.Warn("using in-memory storage, todos are lost on restart")
	default:
		if err := database.RunMigrations(cfg.Database.DSN()); err != nil {
			return err
		}
		log.Info("database migrations applied")

		dbService, err = database.New(cfg.Database, log)
		if err != nil {
			return err
		}
		todoRepo = repository.NewGormTodoRepository(dbService.GetDB())
		health = dbService
	}

	todoService := service.NewTodoService(todoRepo)

	opts := []server.Option{server.WithLogger(log)}
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts = append(opts, server.WithMetrics(metrics.NewCollector(reg), reg))
	}

	apiServer := server.NewServer(cfg, todoService, health, opts...)

	done := make(chan bool, 1)
	go gracefulShutdown(cfg, apiServer, dbService, done)

	log.Info("starting server",
		slog.String("addr", apiServer.Addr),
		slog.String("storage", cfg.Storage),
		slog.String("base_path", cfg.BasePath),
	)
	if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		if dbService != nil {
			_ = dbService.Close()
		}
		return fmt.Errorf("http server error: %w", err)
	}

	<-done
	log.Info("graceful shutdown complete")
	return nil
}
