package coord

import (
	"context"
	"fmt"
	"time"
)

// signal is a named one-shot broadcast latch. ch is closed when the signal
// is set; Release swaps in a fresh channel and clears the flag.
type signal struct {
	set bool
	ch  chan struct{}
}

// getSignal lazily creates the named signal. Wait and Set both auto-create;
// CreateSignal exists as a convenience, not a precondition.
func (c *Coordinator) getSignal(name string) *signal {
	s, ok := c.signals[name]
	if !ok {
		s = &signal{ch: make(chan struct{})}
		c.signals[name] = s
	}
	return s
}

// CreateSignal explicitly creates (or resets to unset) the named signal.
func (c *Coordinator) CreateSignal(name string) error {
	if name == "" {
		return fmt.Errorf("signal name is required")
	}
	c.sigMu.Lock()
	defer c.sigMu.Unlock()
	c.signals[name] = &signal{ch: make(chan struct{})}
	return nil
}

// WaitSignal blocks until the named signal is set or the timeout elapses,
// returning whether the signal fired. A signal already set returns true
// immediately; every concurrent waiter succeeds once set. The wait happens
// outside the coordinator lock.
func (c *Coordinator) WaitSignal(ctx context.Context, name string, timeout time.Duration) (bool, error) {
	if name == "" {
		return false, fmt.Errorf("signal name is required")
	}

	c.sigMu.Lock()
	s := c.getSignal(name)
	if s.set {
		c.sigMu.Unlock()
		return true, nil
	}
	ch := s.ch
	c.sigMu.Unlock()

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	select {
	case <-ch:
		return true, nil
	case <-deadline.C:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// SetSignal sets the named signal, waking every current waiter. The set
// state persists — later waiters succeed immediately — until ReleaseSignal.
func (c *Coordinator) SetSignal(name string) error {
	if name == "" {
		return fmt.Errorf("signal name is required")
	}
	c.sigMu.Lock()
	defer c.sigMu.Unlock()
	s := c.getSignal(name)
	if !s.set {
		s.set = true
		close(s.ch)
	}
	return nil
}

// ReleaseSignal resets the named signal to unset. Releasing a signal that
// was never created fails; releasing an unset signal is a no-op.
func (c *Coordinator) ReleaseSignal(name string) error {
	if name == "" {
		return fmt.Errorf("signal name is required")
	}
	c.sigMu.Lock()
	defer c.sigMu.Unlock()
	s, ok := c.signals[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSignalNotFound, name)
	}
	if s.set {
		s.set = false
		s.ch = make(chan struct{})
	}
	return nil
}
