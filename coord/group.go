package coord

import (
	"context"
	"fmt"
	"sort"
)

// Group is a named ordered list of device serials.
type Group struct {
	Name      string   `json:"name"`
	DeviceIDs []string `json:"device_ids"`
}

// GroupResult is the outcome of one device's command within a group
// execution.
type GroupResult struct {
	DeviceID string `json:"device_id"`
	Success  bool   `json:"success"`
	Output   string `json:"output,omitempty"`
	Error    string `json:"error,omitempty"`
}

// CreateGroup creates or replaces a named device group. Every id is
// validated against the current connected-device list before anything is
// stored, so a missing device leaves no partial group behind. Membership is
// not re-validated afterwards.
func (c *Coordinator) CreateGroup(ctx context.Context, name string, deviceIDs []string) error {
	if name == "" {
		return fmt.Errorf("group name is required")
	}
	if len(deviceIDs) == 0 {
		return fmt.Errorf("group %q needs at least one device id", name)
	}

	serials, err := c.connected(ctx)
	if err != nil {
		return fmt.Errorf("checking connected devices: %w", err)
	}
	for _, id := range deviceIDs {
		if !serials[id] {
			return fmt.Errorf("%w: %s", ErrDeviceNotConnected, id)
		}
	}

	ids := make([]string, len(deviceIDs))
	copy(ids, deviceIDs)

	c.groupMu.Lock()
	c.groups[name] = ids
	c.groupMu.Unlock()
	return nil
}

// Groups lists all device groups sorted by name.
func (c *Coordinator) Groups() []Group {
	c.groupMu.Lock()
	defer c.groupMu.Unlock()

	out := make([]Group, 0, len(c.groups))
	for name, ids := range c.groups {
		copied := make([]string, len(ids))
		copy(copied, ids)
		out = append(out, Group{Name: name, DeviceIDs: copied})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ExecuteGroup runs the same shell command on every member of the group in
// order, collecting one result per device. A failing member is recorded and
// execution continues with the rest; commands run outside the group lock.
func (c *Coordinator) ExecuteGroup(ctx context.Context, name, command string) ([]GroupResult, error) {
	if command == "" {
		return nil, fmt.Errorf("command is required")
	}

	c.groupMu.Lock()
	ids, ok := c.groups[name]
	if !ok {
		c.groupMu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, name)
	}
	members := make([]string, len(ids))
	copy(members, ids)
	c.groupMu.Unlock()

	results := make([]GroupResult, 0, len(members))
	for _, id := range members {
		out, err := c.devices.Run(ctx, id, command)
		if err != nil {
			c.logger.Warn("group command failed", "group", name, "device", id, "error", err)
			results = append(results, GroupResult{DeviceID: id, Output: out, Error: err.Error()})
			continue
		}
		results = append(results, GroupResult{DeviceID: id, Success: true, Output: out})
	}
	return results, nil
}

// DeleteGroup removes a group; deleting an unknown group fails.
func (c *Coordinator) DeleteGroup(name string) error {
	c.groupMu.Lock()
	defer c.groupMu.Unlock()
	if _, ok := c.groups[name]; !ok {
		return fmt.Errorf("%w: %s", ErrGroupNotFound, name)
	}
	delete(c.groups, name)
	return nil
}
