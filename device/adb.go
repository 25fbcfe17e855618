package device

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

const defaultCommandTimeout = 30 * time.Second

// ADBManagerConfig configures the adb-backed device manager.
type ADBManagerConfig struct {
	// Path is the adb executable, "adb" when empty.
	Path string
	// CommandTimeout bounds each adb invocation that has no tighter
	// caller-supplied deadline.
	CommandTimeout time.Duration
	Logger         *slog.Logger
}

// ADBManager drives devices through the adb command line client.
type ADBManager struct {
	path    string
	timeout time.Duration
	logger  *slog.Logger
}

// NewADBManager creates an adb-backed Manager.
func NewADBManager(cfg ADBManagerConfig) *ADBManager {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		path = "adb"
	}
	timeout := cfg.CommandTimeout
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ADBManager{path: path, timeout: timeout, logger: logger}
}

// Version reports the adb client version, used as a startup availability
// probe.
func (m *ADBManager) Version(ctx context.Context) (string, error) {
	out, err := m.exec(ctx, "version")
	if err != nil {
		return "", fmt.Errorf("adb not available: %w", err)
	}
	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	return line, nil
}

// List returns the currently connected devices by invoking `adb devices`
// on every call.
func (m *ADBManager) List(ctx context.Context) ([]Device, error) {
	out, err := m.exec(ctx, "devices")
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	return parseDeviceList(out), nil
}

// Run executes a shell command on the given device.
func (m *ADBManager) Run(ctx context.Context, serial, command string) (string, error) {
	if strings.TrimSpace(serial) == "" {
		return "", fmt.Errorf("device serial is required")
	}
	out, err := m.exec(ctx, "-s", serial, "shell", command)
	if err != nil {
		return out, fmt.Errorf("running %q on %s: %w", command, serial, err)
	}
	return out, nil
}

// Pull copies a file off the device.
func (m *ADBManager) Pull(ctx context.Context, serial, remotePath, localPath string) error {
	if _, err := m.exec(ctx, "-s", serial, "pull", remotePath, localPath); err != nil {
		return fmt.Errorf("pulling %s from %s: %w", remotePath, serial, err)
	}
	return nil
}

// Push copies a local file onto the device.
func (m *ADBManager) Push(ctx context.Context, serial, localPath, remotePath string) error {
	if _, err := m.exec(ctx, "-s", serial, "push", localPath, remotePath); err != nil {
		return fmt.Errorf("pushing %s to %s: %w", remotePath, serial, err)
	}
	return nil
}

func (m *ADBManager) exec(ctx context.Context, args ...string) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	m.logger.Debug("exec adb", "args", strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, m.path, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("%s %s: %w", m.path, strings.Join(args, " "), err)
	}
	return string(out), nil
}

// parseDeviceList parses `adb devices` output: a header line followed by
// "<serial>\t<state>" rows.
func parseDeviceList(out string) []Device {
	var devices []Device
	lines := strings.Split(strings.ReplaceAll(out, "\r\n", "\n"), "\n")
	for i, line := range lines {
		if i == 0 || strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		devices = append(devices, Device{Serial: fields[0], State: fields[1]})
	}
	return devices
}
