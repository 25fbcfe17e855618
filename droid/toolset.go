// Package droid binds the multi-device coordinator and the adb collaborator
// to the tool registry.
package droid

import (
	"errors"
	"log/slog"
	"time"

	"github.com/YantaoMou/mcp-droid/coord"
	"github.com/YantaoMou/mcp-droid/device"
	"github.com/YantaoMou/mcp-droid/rpc"
	"github.com/YantaoMou/mcp-droid/schedule"
	"github.com/YantaoMou/mcp-droid/tool"
)

// Toolset holds the collaborators the tool handlers close over.
type Toolset struct {
	Coordinator *coord.Coordinator
	Devices     device.Manager
	Scheduler   *schedule.Scheduler
	Sender      string
	Logger      *slog.Logger
}

// RegisterAll installs every device tool. The schedule tools are skipped
// when no scheduler is configured.
func RegisterAll(r *tool.Registry, ts *Toolset) {
	if ts.Logger == nil {
		ts.Logger = slog.Default()
	}
	if ts.Sender == "" {
		ts.Sender = "server"
	}

	r.Register(ts.deviceMessagingTool())
	r.Register(ts.syncOperationsTool())
	r.Register(ts.deviceGroupActionsTool())
	r.Register(ts.shareBetweenDevicesTool())
	r.Register(ts.listDevicesTool())
	r.Register(ts.getDeviceInfoTool())
	r.Register(ts.executeShellTool())

	if ts.Scheduler != nil {
		r.Register(ts.scheduleGroupCommandTool())
		r.Register(ts.listScheduledCommandsTool())
		r.Register(ts.cancelScheduledCommandTool())
	}
}

// appError converts coordinator sentinels into typed application errors so
// their messages cross the wire verbatim. Anything else passes through and
// becomes an internal error at the dispatcher.
func appError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, coord.ErrDeviceNotConnected),
		errors.Is(err, coord.ErrGroupNotFound),
		errors.Is(err, coord.ErrSignalNotFound),
		errors.Is(err, coord.ErrKeyNotFound),
		errors.Is(err, schedule.ErrEntryNotFound):
		return rpc.Errorf(rpc.CodeApplication, "%s", err.Error())
	default:
		return err
	}
}

func requiredString(params map[string]any, name string) (string, error) {
	v, ok := params[name].(string)
	if !ok || v == "" {
		return "", rpc.Errorf(rpc.CodeApplication, "%s is required", name)
	}
	return v, nil
}

func optionalString(params map[string]any, name string) string {
	v, _ := params[name].(string)
	return v
}

// secondsParam reads a numeric parameter expressed in seconds. Decoded JSON
// numbers arrive as float64.
func secondsParam(params map[string]any, name string, fallback time.Duration) time.Duration {
	switch v := params[name].(type) {
	case float64:
		return time.Duration(v * float64(time.Second))
	case int:
		return time.Duration(v) * time.Second
	default:
		return fallback
	}
}

func stringSliceParam(params map[string]any, name string) []string {
	raw, ok := params[name].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
