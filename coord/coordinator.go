// Package coord implements the multi-device coordination primitives:
// per-device mailboxes, named one-shot signals, device groups, and a shared
// key/value blackboard. Each substructure carries its own lock, held only
// across local state mutation — timed waits and device commands always run
// outside the locks so one slow operation never blocks unrelated activity.
// None of the state survives a restart.
package coord

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/YantaoMou/mcp-droid/device"
)

var (
	// ErrDeviceNotConnected reports a device id that is not in the current
	// connected-device list.
	ErrDeviceNotConnected = errors.New("device not connected")
	// ErrGroupNotFound reports an unknown device group name.
	ErrGroupNotFound = errors.New("device group not found")
	// ErrSignalNotFound reports a release on a signal that was never created.
	ErrSignalNotFound = errors.New("sync signal not found")
	// ErrKeyNotFound reports a blackboard read of an absent key.
	ErrKeyNotFound = errors.New("shared data key not found")
)

// Devices is the slice of the device collaborator the coordinator needs:
// a fresh connected-device view and per-device command execution.
type Devices interface {
	List(ctx context.Context) ([]device.Device, error)
	Run(ctx context.Context, serial, command string) (string, error)
}

// Coordinator owns the four coordination substructures.
type Coordinator struct {
	devices Devices
	logger  *slog.Logger

	mailMu sync.Mutex
	mail   map[string]*mailbox

	sigMu   sync.Mutex
	signals map[string]*signal

	groupMu sync.Mutex
	groups  map[string][]string

	boardMu sync.RWMutex
	board   map[string]any
}

// New creates a coordinator bound to the given device collaborator.
func New(devices Devices, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		devices: devices,
		logger:  logger,
		mail:    make(map[string]*mailbox),
		signals: make(map[string]*signal),
		groups:  make(map[string][]string),
		board:   make(map[string]any),
	}
}

// connected returns the fresh set of connected serials. It is called per
// operation, never cached.
func (c *Coordinator) connected(ctx context.Context) (map[string]bool, error) {
	devices, err := c.devices.List(ctx)
	if err != nil {
		return nil, err
	}
	serials := make(map[string]bool, len(devices))
	for _, d := range devices {
		serials[d.Serial] = true
	}
	return serials, nil
}

// Cleanup releases every signal waiter and drains all mailboxes. It is
// invoked by the lifecycle manager at shutdown and is safe to call more
// than once.
func (c *Coordinator) Cleanup(ctx context.Context) error {
	c.sigMu.Lock()
	for name, s := range c.signals {
		if !s.set {
			s.set = true
			close(s.ch)
			c.logger.Debug("released signal waiters on shutdown", "signal", name)
		}
	}
	c.sigMu.Unlock()

	c.mailMu.Lock()
	for id, mb := range c.mail {
		if len(mb.queue) > 0 {
			c.logger.Debug("dropping queued messages on shutdown", "device", id, "count", len(mb.queue))
		}
		mb.queue = nil
	}
	c.mailMu.Unlock()

	return nil
}
