package device

import (
	"context"
	"fmt"
	"sync"
)

// StaticManager is an in-memory Manager backed by a fixed device list and
// scripted command outputs. It backs tests and the CLI's offline tool
// listing; no vendor transport is touched.
type StaticManager struct {
	mu      sync.Mutex
	devices []Device
	// Outputs maps "serial command" to canned output.
	outputs map[string]string
	// Fail marks serials whose commands should fail.
	fail map[string]bool
	runs []string
}

// NewStaticManager creates a static manager with the given connected serials.
func NewStaticManager(serials ...string) *StaticManager {
	m := &StaticManager{
		outputs: make(map[string]string),
		fail:    make(map[string]bool),
	}
	for _, s := range serials {
		m.devices = append(m.devices, Device{Serial: s, State: "device"})
	}
	return m
}

// SetOutput scripts the output for a command on a serial.
func (m *StaticManager) SetOutput(serial, command, output string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outputs[serial+" "+command] = output
}

// FailCommands makes every command on the serial return an error.
func (m *StaticManager) FailCommands(serial string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[serial] = true
}

// Runs returns the "serial command" pairs executed so far, in order.
func (m *StaticManager) Runs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.runs))
	copy(out, m.runs)
	return out
}

func (m *StaticManager) List(ctx context.Context) ([]Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Device, len(m.devices))
	copy(out, m.devices)
	return out, nil
}

func (m *StaticManager) Run(ctx context.Context, serial, command string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, serial+" "+command)
	if m.fail[serial] {
		return "", fmt.Errorf("command failed on %s", serial)
	}
	if out, ok := m.outputs[serial+" "+command]; ok {
		return out, nil
	}
	return "", nil
}

func (m *StaticManager) Pull(ctx context.Context, serial, remotePath, localPath string) error {
	if m.fail[serial] {
		return fmt.Errorf("pull failed on %s", serial)
	}
	return nil
}

func (m *StaticManager) Push(ctx context.Context, serial, localPath, remotePath string) error {
	if m.fail[serial] {
		return fmt.Errorf("push failed on %s", serial)
	}
	return nil
}
