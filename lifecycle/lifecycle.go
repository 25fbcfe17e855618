// Package lifecycle tracks long-lived collaborators and background workers
// and tears them down through one idempotent cleanup path. Normal exit,
// SIGTERM, and SIGINT all converge on Manager.Cleanup.
package lifecycle

import (
	"context"
	"log/slog"
	"sync"
)

// Controller is the optional cleanup hook a tracked collaborator may expose.
// Resources without the hook can still be registered; they are simply
// skipped at cleanup.
type Controller interface {
	Cleanup(ctx context.Context) error
}

// Worker is a background loop that can be asked to stop. Stopping is best
// effort: a worker that ignores its stop signal cannot be forcibly
// terminated, so cleanup does not guarantee synchronous teardown.
type Worker interface {
	Stop(ctx context.Context) error
}

// Manager tracks registered resources and workers for shutdown.
type Manager struct {
	mu          sync.Mutex
	logger      *slog.Logger
	controllers []any
	workers     []Worker
	cleaned     bool
}

// New creates a lifecycle manager.
func New(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{logger: logger}
}

// RegisterController tracks a collaborator for cleanup. Registering the
// same reference twice is a no-op.
func (m *Manager) RegisterController(ref any) {
	if ref == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.controllers {
		if existing == ref {
			return
		}
	}
	m.controllers = append(m.controllers, ref)
}

// RegisterWorker tracks a background worker for a best-effort stop at
// cleanup. Registering the same reference twice is a no-op.
func (m *Manager) RegisterWorker(w Worker) {
	if w == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.workers {
		if existing == w {
			return
		}
	}
	m.workers = append(m.workers, w)
}

// Cleanup stops tracked workers and runs each controller's cleanup hook.
// It never panics and may be invoked any number of times; only the first
// call does work. A failing controller is logged and does not prevent the
// remaining controllers from being cleaned.
func (m *Manager) Cleanup(ctx context.Context) {
	m.mu.Lock()
	if m.cleaned {
		m.mu.Unlock()
		return
	}
	m.cleaned = true
	workers := make([]Worker, len(m.workers))
	copy(workers, m.workers)
	controllers := make([]any, len(m.controllers))
	copy(controllers, m.controllers)
	m.mu.Unlock()

	m.logger.Info("cleaning up resources", "controllers", len(controllers), "workers", len(workers))

	for _, w := range workers {
		m.stopWorker(ctx, w)
	}
	for _, ref := range controllers {
		m.cleanController(ctx, ref)
	}

	m.logger.Info("resource cleanup complete")
}

func (m *Manager) stopWorker(ctx context.Context, w Worker) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("worker stop panicked", "panic", r)
		}
	}()
	if err := w.Stop(ctx); err != nil {
		m.logger.Error("stopping worker", "error", err)
	}
}

func (m *Manager) cleanController(ctx context.Context, ref any) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("controller cleanup panicked", "panic", r)
		}
	}()

	switch c := ref.(type) {
	case Controller:
		if err := c.Cleanup(ctx); err != nil {
			m.logger.Error("controller cleanup failed", "error", err)
		}
	case interface{ Close() error }:
		if err := c.Close(); err != nil {
			m.logger.Error("controller close failed", "error", err)
		}
	default:
		// No cleanup hook; nothing to do.
	}
}
