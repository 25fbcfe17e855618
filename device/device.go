// Package device is the boundary to the vendor transport. The core only
// sees the Manager interface: a live device list, shell command execution,
// and file transfer. Everything behind it (adb invocation, output parsing)
// stays opaque to callers.
package device

import "context"

// Device identifies one connected device.
type Device struct {
	Serial string `json:"serial"`
	State  string `json:"state"`
}

// Manager is the external collaborator contract for a fleet of devices.
type Manager interface {
	// List returns the currently connected devices. Callers needing a fresh
	// view call it per operation; implementations must not cache.
	List(ctx context.Context) ([]Device, error)
	// Run executes a shell command on the device with the given serial and
	// returns its combined output.
	Run(ctx context.Context, serial, command string) (string, error)
	// Pull copies a file from the device to the local path.
	Pull(ctx context.Context, serial, remotePath, localPath string) error
	// Push copies a local file onto the device.
	Push(ctx context.Context, serial, localPath, remotePath string) error
}
