package droid

import (
	"context"
	"os"
	"path/filepath"

	"github.com/YantaoMou/mcp-droid/rpc"
	"github.com/YantaoMou/mcp-droid/tool"
)

func (ts *Toolset) shareBetweenDevicesTool() *tool.Tool {
	return &tool.Tool{
		Name: "share_between_devices",
		Doc: `Pass data or copy files between devices.

action: one of share_data, get_data, copy_file
data_key: blackboard key, used by share_data and get_data
data_value: value to store, used by share_data
source_device: source device serial, used by copy_file
target_device: target device serial, used by copy_file
device_path: on-device file path, used by copy_file`,
		Params: []tool.ParamSpec{
			{Name: "action", Type: tool.TypeString},
			{Name: "data_key", Type: tool.TypeString, Default: ""},
			{Name: "data_value", Type: tool.TypeString, Default: ""},
			{Name: "source_device", Type: tool.TypeString, Default: ""},
			{Name: "target_device", Type: tool.TypeString, Default: ""},
			{Name: "device_path", Type: tool.TypeString, Default: ""},
		},
		Handler: ts.handleShareBetweenDevices,
	}
}

func (ts *Toolset) handleShareBetweenDevices(ctx context.Context, params map[string]any) (any, error) {
	action, err := requiredString(params, "action")
	if err != nil {
		return nil, err
	}

	switch action {
	case "share_data":
		key, err := requiredString(params, "data_key")
		if err != nil {
			return nil, err
		}
		value, ok := params["data_value"]
		if !ok {
			return nil, rpc.Errorf(rpc.CodeApplication, "data_value is required")
		}
		if err := ts.Coordinator.Share(key, value); err != nil {
			return nil, appError(err)
		}
		return map[string]any{"success": true, "data_key": key}, nil

	case "get_data":
		key, err := requiredString(params, "data_key")
		if err != nil {
			return nil, err
		}
		value, err := ts.Coordinator.Get(key)
		if err != nil {
			return nil, appError(err)
		}
		return map[string]any{"data_key": key, "data_value": value}, nil

	case "copy_file":
		return ts.copyFile(ctx, params)

	default:
		return nil, rpc.Errorf(rpc.CodeApplication, "unsupported action: %s", action)
	}
}

// copyFile pulls a file off the source device into a scratch directory and
// pushes it to the same path on the target.
func (ts *Toolset) copyFile(ctx context.Context, params map[string]any) (any, error) {
	source, err := requiredString(params, "source_device")
	if err != nil {
		return nil, err
	}
	target, err := requiredString(params, "target_device")
	if err != nil {
		return nil, err
	}
	devicePath, err := requiredString(params, "device_path")
	if err != nil {
		return nil, err
	}

	scratch, err := os.MkdirTemp("", "mcpdroid-copy-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(scratch)

	local := filepath.Join(scratch, filepath.Base(devicePath))
	if err := ts.Devices.Pull(ctx, source, devicePath, local); err != nil {
		return nil, rpc.Errorf(rpc.CodeApplication, "pulling %s from %s: %v", devicePath, source, err)
	}
	if err := ts.Devices.Push(ctx, target, local, devicePath); err != nil {
		return nil, rpc.Errorf(rpc.CodeApplication, "pushing %s to %s: %v", devicePath, target, err)
	}

	return map[string]any{
		"success":       true,
		"source_device": source,
		"target_device": target,
		"device_path":   devicePath,
	}, nil
}
