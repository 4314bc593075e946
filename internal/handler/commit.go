package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/dukerupert/chorechart/internal/definition"
	"github.com/dukerupert/chorechart/internal/engine"
	"github.com/dukerupert/chorechart/internal/model"
	"github.com/dukerupert/chorechart/internal/store"
	"github.com/dukerupert/chorechart/internal/websocket"
)

// Committer makes the results of engine commands durable and visible: it
// flushes the ledger and state tables, journals drained events, rewrites
// the definition file after definition changes and broadcasts each event.
type Committer struct {
	mu              sync.Mutex
	engine          *engine.Engine
	repo            engine.Repository
	journal         *store.JournalStore
	hub             *websocket.Hub
	definitionsPath string
	watcher         *definition.Watcher
	logger          *slog.Logger
}

type CommitterConfig struct {
	Engine          *engine.Engine
	Repository      engine.Repository
	Journal         *store.JournalStore
	Hub             *websocket.Hub
	DefinitionsPath string
	Watcher         *definition.Watcher
	Logger          *slog.Logger
}

func NewCommitter(cfg CommitterConfig) *Committer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Committer{
		engine:          cfg.Engine,
		repo:            cfg.Repository,
		journal:         cfg.Journal,
		hub:             cfg.Hub,
		definitionsPath: cfg.DefinitionsPath,
		watcher:         cfg.Watcher,
		logger:          logger.With("component", "committer"),
	}
}

// SetWatcher attaches the definition watcher after construction, so saves
// made here are acknowledged instead of reloaded.
func (c *Committer) SetWatcher(w *definition.Watcher) {
	c.mu.Lock()
	c.watcher = w
	c.mu.Unlock()
}

// Commit persists and publishes everything the engine did since the last
// commit.
func (c *Committer) Commit(ctx context.Context) error {
	return c.commit(ctx, true)
}

// CommitReload is Commit for changes that came from the definition file
// itself, which is therefore not rewritten.
func (c *Committer) CommitReload(ctx context.Context) error {
	return c.commit(ctx, false)
}

func (c *Committer) commit(ctx context.Context, saveDefinitions bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	events := c.engine.DrainEvents()

	var errs []error
	if c.repo != nil {
		if err := c.engine.Flush(ctx, c.repo); err != nil {
			errs = append(errs, err)
		}
	}
	if c.journal != nil {
		if err := c.journal.Append(ctx, events); err != nil {
			errs = append(errs, fmt.Errorf("journal events: %w", err))
		}
	}
	if saveDefinitions && c.definitionsPath != "" && definitionsTouched(events) {
		if err := c.saveDefinitionsLocked(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.hub != nil {
		for _, ev := range events {
			c.hub.Broadcast(websocket.FromEvent(ev))
		}
	}

	if err := errors.Join(errs...); err != nil {
		c.logger.Error("commit failed", "events", len(events), "error", err)
		return err
	}
	c.logger.Debug("committed", "events", len(events))
	return nil
}

func (c *Committer) saveDefinitionsLocked() error {
	tasks, privileges := c.engine.Definitions()
	f := &definition.File{Tasks: tasks, Privileges: privileges}
	if err := definition.Save(c.definitionsPath, f); err != nil {
		return fmt.Errorf("save definitions: %w", err)
	}
	if c.watcher != nil {
		c.watcher.Acknowledge(f)
	}
	c.logger.Info("definitions saved", "path", c.definitionsPath)
	return nil
}

func definitionsTouched(events []model.Event) bool {
	for _, ev := range events {
		if ev.Kind == model.EventDefinitionChanged || ev.Kind == model.EventTaskRemoved {
			return true
		}
	}
	return false
}

// commitOrFail commits and writes a 500 on failure. It reports whether the
// caller should go on to write its own response.
func commitOrFail(c *Committer, w http.ResponseWriter, r *http.Request) bool {
	if c == nil {
		return true
	}
	if err := c.Commit(r.Context()); err != nil {
		writeMessage(w, http.StatusInternalServerError, "failed to persist changes")
		return false
	}
	return true
}
