// Package schedule runs shell commands on device groups on a recurring cron
// schedule. Entries live in memory for the lifetime of the server.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/YantaoMou/mcp-droid/coord"
)

const defaultPollInterval = 5 * time.Second

// ErrEntryNotFound reports an unknown schedule entry id.
var ErrEntryNotFound = errors.New("schedule entry not found")

// Entries use plain five-field cron (minute hour dom month dow), no seconds
// field and no @descriptors.
var entryCronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// nextRun computes when an entry fires next, strictly after the given time.
// All schedules are evaluated in UTC; timezone prefixes are rejected rather
// than honored so an entry means the same thing on every host.
func nextRun(cronExpr string, after time.Time) (time.Time, error) {
	cronExpr = strings.TrimSpace(cronExpr)
	if cronExpr == "" {
		return time.Time{}, errors.New("cron expression is required")
	}
	if strings.Contains(strings.ToUpper(cronExpr), "TZ=") {
		return time.Time{}, errors.New("cron expression must not carry a timezone prefix, schedules run in UTC")
	}
	sched, err := entryCronParser.Parse(cronExpr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron expression: %w", err)
	}
	return sched.Next(after.UTC()), nil
}

// Executor runs a command against every member of a device group.
type Executor interface {
	ExecuteGroup(ctx context.Context, name, command string) ([]coord.GroupResult, error)
}

// Entry is one recurring group command.
type Entry struct {
	ID        string     `json:"id"`
	Group     string     `json:"group"`
	Command   string     `json:"command"`
	CronExpr  string     `json:"cron_expr"`
	NextRunAt time.Time  `json:"next_run_at"`
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	LastError string     `json:"last_error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// SchedulerConfig configures the group command scheduler.
type SchedulerConfig struct {
	Executor     Executor
	PollInterval time.Duration
	Now          func() time.Time
	Logger       *slog.Logger
}

// Scheduler polls for due entries and executes them.
type Scheduler struct {
	executor     Executor
	pollInterval time.Duration
	now          func() time.Time
	logger       *slog.Logger

	mu      sync.Mutex
	entries map[string]*Entry
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewScheduler creates a scheduler instance.
func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	if cfg.Executor == nil {
		return nil, errors.New("scheduler executor is nil")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Scheduler{
		executor:     cfg.Executor,
		pollInterval: cfg.PollInterval,
		now:          cfg.Now,
		logger:       cfg.Logger,
		entries:      make(map[string]*Entry),
	}, nil
}

// Add registers a recurring command after validating the cron expression.
func (s *Scheduler) Add(group, command, cronExpr string) (Entry, error) {
	if group == "" {
		return Entry{}, fmt.Errorf("group name is required")
	}
	if command == "" {
		return Entry{}, fmt.Errorf("command is required")
	}
	now := s.now()
	next, err := nextRun(cronExpr, now)
	if err != nil {
		return Entry{}, err
	}

	entry := &Entry{
		ID:        uuid.NewString(),
		Group:     group,
		Command:   command,
		CronExpr:  cronExpr,
		NextRunAt: next,
		CreatedAt: now,
	}

	s.mu.Lock()
	s.entries[entry.ID] = entry
	s.mu.Unlock()

	s.logger.Info("scheduled group command", "id", entry.ID, "group", group, "cron", cronExpr, "next_run_at", next)
	return *entry, nil
}

// List returns all entries ordered by creation time.
func (s *Scheduler) List() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Remove deletes an entry by id.
func (s *Scheduler) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	delete(s.entries, id)
	return nil
}

// Start launches background polling. The loop exits when ctx is cancelled or
// Stop is called, whichever comes first. Repeated calls are ignored.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return nil
	}
	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				s.RunOnce(loopCtx)
			}
		}
	}()

	return nil
}

// Stop halts polling and waits for the loop to exit. It implements the
// lifecycle worker contract.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce executes every due entry and advances its next run time.
func (s *Scheduler) RunOnce(ctx context.Context) {
	now := s.now()

	s.mu.Lock()
	var due []*Entry
	for _, e := range s.entries {
		if !e.NextRunAt.After(now) {
			due = append(due, e)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].CreatedAt.Before(due[j].CreatedAt) })
	s.mu.Unlock()

	for _, e := range due {
		s.runEntry(ctx, e, now)
	}
}

func (s *Scheduler) runEntry(ctx context.Context, e *Entry, now time.Time) {
	results, err := s.executor.ExecuteGroup(ctx, e.Group, e.Command)

	next, nextErr := nextRun(e.CronExpr, s.now())
	if nextErr != nil {
		// The expression was validated at Add time; treat failure here as
		// unrecoverable and park the entry far in the future.
		s.logger.Error("recomputing schedule", "id", e.ID, "error", nextErr)
		next = now.Add(24 * time.Hour)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[e.ID]; !ok {
		// Removed while running.
		return
	}
	ranAt := now
	e.LastRunAt = &ranAt
	e.NextRunAt = next
	if err != nil {
		e.LastError = err.Error()
		s.logger.Warn("scheduled group command failed", "id", e.ID, "group", e.Group, "error", err)
		return
	}
	e.LastError = ""
	failures := 0
	for _, r := range results {
		if !r.Success {
			failures++
		}
	}
	s.logger.Info("scheduled group command ran", "id", e.ID, "group", e.Group, "devices", len(results), "failures", failures)
}
