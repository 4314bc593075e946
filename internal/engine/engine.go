// Package engine holds the chore state and accounting core: the task state
// table, the points ledger, the privilege evaluator and the day rollover.
//
// All state lives in an Engine instance. Every exported operation locks the
// engine for its full duration, so a single (assignee, slug) transition is
// atomic. Operations on "all assignees" fan out one goroutine per assignee
// and wait for every branch before returning.
package engine

import (
	"cmp"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/dukerupert/chorechart/internal/model"
)

// DefaultMaxAdjustment bounds the magnitude of a single AdjustPoints call.
const DefaultMaxAdjustment int64 = 1_000_000_000

// MaxDisableDuration bounds a temporary disable and any single shift of its
// expiry.
const MaxDisableDuration = 365 * 24 * time.Hour

type key struct {
	assignee string
	slug     string
}

type taskRow struct {
	state     model.TaskState
	requested bool
}

type privilegeRow struct {
	state model.PrivilegeState
	until *time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMaxAdjustment sets the bound for AdjustPoints. Non-positive values
// keep the default.
func WithMaxAdjustment(n int64) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxAdjustment = n
		}
	}
}

type Engine struct {
	mu            sync.Mutex
	now           func() time.Time
	logger        *slog.Logger
	maxAdjustment int64

	tasks      map[string]model.TaskDefinition
	privileges map[string]model.PrivilegeDefinition

	taskStates      map[key]*taskRow
	privilegeStates map[key]*privilegeRow
	ledger          map[string]*model.LedgerEntry

	outbox []model.Event
}

func New(opts ...Option) *Engine {
	e := &Engine{
		now:             time.Now,
		logger:          slog.Default(),
		maxAdjustment:   DefaultMaxAdjustment,
		tasks:           make(map[string]model.TaskDefinition),
		privileges:      make(map[string]model.PrivilegeDefinition),
		taskStates:      make(map[key]*taskRow),
		privilegeStates: make(map[key]*privilegeRow),
		ledger:          make(map[string]*model.LedgerEntry),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DrainEvents returns the events committed since the last drain.
func (e *Engine) DrainEvents() []model.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	events := e.outbox
	e.outbox = nil
	return events
}

func (e *Engine) emit(ev model.Event) {
	e.outbox = append(e.outbox, ev)
}

// Assignees returns every known assignee, sorted.
func (e *Engine) Assignees() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.assigneesLocked()
}

func (e *Engine) assigneesLocked() []string {
	set := make(map[string]struct{})
	for _, t := range e.tasks {
		for _, a := range t.Assignees {
			set[a] = struct{}{}
		}
	}
	for _, p := range e.privileges {
		for _, a := range p.Assignees {
			set[a] = struct{}{}
		}
	}
	for a := range e.ledger {
		set[a] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for a := range set {
		out = append(out, a)
	}
	slices.Sort(out)
	return out
}

func (e *Engine) knownAssigneeLocked(assignee string) bool {
	if _, ok := e.ledger[assignee]; ok {
		return true
	}
	for _, t := range e.tasks {
		if t.HasAssignee(assignee) {
			return true
		}
	}
	for _, p := range e.privileges {
		if p.HasAssignee(assignee) {
			return true
		}
	}
	return false
}

// tasksForLocked returns the assignee's task definitions ordered by slug.
func (e *Engine) tasksForLocked(assignee string) []model.TaskDefinition {
	var out []model.TaskDefinition
	for _, t := range e.tasks {
		if t.HasAssignee(assignee) {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b model.TaskDefinition) int { return cmp.Compare(a.Slug, b.Slug) })
	return out
}

func (e *Engine) privilegesForLocked(assignee string) []model.PrivilegeDefinition {
	var out []model.PrivilegeDefinition
	for _, p := range e.privileges {
		if p.HasAssignee(assignee) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b model.PrivilegeDefinition) int { return cmp.Compare(a.Slug, b.Slug) })
	return out
}

func (e *Engine) entryLocked(assignee string) *model.LedgerEntry {
	entry, ok := e.ledger[assignee]
	if !ok {
		entry = &model.LedgerEntry{Assignee: assignee}
		e.ledger[assignee] = entry
	}
	return entry
}
