package droid

import (
	"context"
	"strings"

	"github.com/YantaoMou/mcp-droid/rpc"
	"github.com/YantaoMou/mcp-droid/tool"
)

func (ts *Toolset) listDevicesTool() *tool.Tool {
	return &tool.Tool{
		Name:    "list_devices",
		Doc:     "List currently connected devices.",
		Handler: ts.handleListDevices,
	}
}

func (ts *Toolset) handleListDevices(ctx context.Context, params map[string]any) (any, error) {
	devices, err := ts.Devices.List(ctx)
	if err != nil {
		return nil, rpc.Errorf(rpc.CodeApplication, "listing devices: %v", err)
	}
	out := make([]map[string]any, 0, len(devices))
	for _, d := range devices {
		out = append(out, map[string]any{"serial": d.Serial, "state": d.State})
	}
	return map[string]any{"devices": out, "count": len(out)}, nil
}

func (ts *Toolset) getDeviceInfoTool() *tool.Tool {
	return &tool.Tool{
		Name: "get_device_info",
		Doc: `Get basic device information.

device_id: device serial`,
		Params: []tool.ParamSpec{
			{Name: "device_id", Type: tool.TypeString},
		},
		Handler: ts.handleGetDeviceInfo,
	}
}

func (ts *Toolset) handleGetDeviceInfo(ctx context.Context, params map[string]any) (any, error) {
	deviceID, err := requiredString(params, "device_id")
	if err != nil {
		return nil, err
	}

	props := map[string]string{
		"model":           "ro.product.model",
		"brand":           "ro.product.brand",
		"android_version": "ro.build.version.release",
	}
	info := map[string]any{"device_id": deviceID}
	for key, prop := range props {
		out, err := ts.Devices.Run(ctx, deviceID, "getprop "+prop)
		if err != nil {
			return nil, rpc.Errorf(rpc.CodeApplication, "querying device %s: %v", deviceID, err)
		}
		info[key] = strings.TrimSpace(out)
	}
	return info, nil
}

func (ts *Toolset) executeShellTool() *tool.Tool {
	return &tool.Tool{
		Name: "execute_shell",
		Doc: `Execute a shell command on a device.

device_id: device serial
command: shell command to run`,
		Params: []tool.ParamSpec{
			{Name: "device_id", Type: tool.TypeString},
			{Name: "command", Type: tool.TypeString},
		},
		Handler: ts.handleExecuteShell,
	}
}

func (ts *Toolset) handleExecuteShell(ctx context.Context, params map[string]any) (any, error) {
	deviceID, err := requiredString(params, "device_id")
	if err != nil {
		return nil, err
	}
	command, err := requiredString(params, "command")
	if err != nil {
		return nil, err
	}

	output, err := ts.Devices.Run(ctx, deviceID, command)
	if err != nil {
		return nil, rpc.Errorf(rpc.CodeApplication, "executing on %s: %v", deviceID, err)
	}
	return map[string]any{"device_id": deviceID, "output": output}, nil
}
