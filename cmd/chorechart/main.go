package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/chorechart/internal/config"
	"github.com/dukerupert/chorechart/internal/database"
	"github.com/dukerupert/chorechart/internal/definition"
	"github.com/dukerupert/chorechart/internal/engine"
	"github.com/dukerupert/chorechart/internal/logging"
	"github.com/dukerupert/chorechart/internal/scheduler"
	"github.com/dukerupert/chorechart/internal/server"
	"github.com/dukerupert/chorechart/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "chorechart: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	defs, err := definition.Load(cfg.DefinitionsPath)
	if err != nil {
		return err
	}

	eng := engine.New(
		engine.WithLogger(logger.With("component", "engine")),
		engine.WithMaxAdjustment(cfg.MaxAdjustment),
	)
	if err := eng.ReplaceDefinitions(defs.Tasks, defs.Privileges); err != nil {
		return fmt.Errorf("apply definitions: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo := store.NewRepository(db)
	if err := eng.Load(ctx, repo); err != nil {
		return fmt.Errorf("restore engine: %w", err)
	}
	logger.Info("definitions loaded",
		"path", cfg.DefinitionsPath, "tasks", len(defs.Tasks), "privileges", len(defs.Privileges),
		"assignees", len(eng.Assignees()))

	srv := server.New(db, eng, cfg.DefinitionsPath, logger)
	committer := srv.Committer()

	watcher := definition.NewWatcher(cfg.DefinitionsPath, cfg.WatchInterval, logger, func(f *definition.File) {
		if err := eng.ReplaceDefinitions(f.Tasks, f.Privileges); err != nil {
			logger.Error("apply reloaded definitions", "error", err)
			return
		}
		if err := committer.CommitReload(ctx); err != nil {
			logger.Error("commit reloaded definitions", "error", err)
		}
	})
	watcher.Acknowledge(defs)
	committer.SetWatcher(watcher)
	watcher.Start(ctx)
	defer watcher.Stop()

	sched := scheduler.New(eng, committer, loc, logger)
	if cfg.RolloverSchedule != "" {
		if _, err := sched.ScheduleRollover(cfg.RolloverSchedule); err != nil {
			return err
		}
	}
	if cfg.RefreshInterval > 0 {
		if _, err := sched.ScheduleRefresh(cfg.RefreshInterval); err != nil {
			return err
		}
	}
	sched.Start()
	defer sched.Stop()

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("chorechart running", "addr", "http://localhost:"+cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	sched.Stop()
	watcher.Stop()
	if err := committer.Commit(shutdownCtx); err != nil {
		return fmt.Errorf("final flush: %w", err)
	}
	logger.Info("state flushed")
	return nil
}
