// Package scheduler drives the engine from the clock: the daily rollover
// and a periodic privilege refresh that surfaces expired temporary
// disables.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dukerupert/chorechart/internal/engine"
)

// Committer persists and publishes pending engine changes.
type Committer interface {
	Commit(ctx context.Context) error
}

type Scheduler struct {
	cron      *cron.Cron
	engine    *engine.Engine
	committer Committer
	logger    *slog.Logger
}

func New(e *engine.Engine, c Committer, loc *time.Location, logger *slog.Logger) *Scheduler {
	logger = logger.With("component", "scheduler")
	cl := cronLogger{logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		engine:    e,
		committer: c,
		logger:    logger,
	}
}

// ScheduleRollover registers the daily rollover. spec is either a wall
// clock time "HH:MM" or a standard five-field cron expression.
func (s *Scheduler) ScheduleRollover(spec string) (cron.EntryID, error) {
	cronSpec, err := rolloverSpec(spec)
	if err != nil {
		return 0, err
	}
	id, err := s.cron.AddFunc(cronSpec, s.RunRollover)
	if err != nil {
		return 0, fmt.Errorf("schedule rollover %q: %w", spec, err)
	}
	s.logger.Info("rollover scheduled", "spec", cronSpec)
	return id, nil
}

// ScheduleRefresh re-evaluates every assignee's privileges on a fixed
// interval.
func (s *Scheduler) ScheduleRefresh(interval time.Duration) (cron.EntryID, error) {
	if interval < time.Second {
		return 0, fmt.Errorf("refresh interval %s must be at least 1s", interval)
	}
	return s.cron.AddFunc(fmt.Sprintf("@every %s", interval), s.RunRefresh)
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// RunRollover starts a new day for every assignee and commits the result.
func (s *Scheduler) RunRollover() {
	start := time.Now()
	res := s.engine.StartNewDayAll()
	if err := res.Err(); err != nil {
		s.logger.Error("rollover failed for some assignees", "error", err)
	}
	s.commit("rollover")
	s.logger.Info("rollover complete", "assignees", len(res.Succeeded), "duration", time.Since(start))
}

// RunRefresh re-evaluates privileges for every assignee and commits.
func (s *Scheduler) RunRefresh() {
	if err := s.engine.ReevaluateAll().Err(); err != nil {
		s.logger.Error("refresh failed for some assignees", "error", err)
	}
	s.commit("refresh")
}

func (s *Scheduler) commit(job string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.committer.Commit(ctx); err != nil {
		s.logger.Error("commit after job", "job", job, "error", err)
	}
}

func rolloverSpec(spec string) (string, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return "", fmt.Errorf("empty rollover schedule")
	}
	hh, mm, ok := strings.Cut(spec, ":")
	if !ok {
		if _, err := cron.ParseStandard(spec); err != nil {
			return "", fmt.Errorf("invalid rollover schedule %q: %w", spec, err)
		}
		return spec, nil
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in %q", spec)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in %q", spec)
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

// cronLogger adapts slog to cron's logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
