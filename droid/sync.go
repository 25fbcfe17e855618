package droid

import (
	"context"
	"time"

	"github.com/YantaoMou/mcp-droid/rpc"
	"github.com/YantaoMou/mcp-droid/tool"
)

const defaultWaitTimeout = 30 * time.Second

func (ts *Toolset) syncOperationsTool() *tool.Tool {
	return &tool.Tool{
		Name: "sync_operations",
		Doc: `Coordinate timing across devices with named one-shot signals.

action: one of create, wait, set, release
lock_name: signal name
timeout: seconds to wait for the signal, used by wait`,
		Params: []tool.ParamSpec{
			{Name: "action", Type: tool.TypeString},
			{Name: "lock_name", Type: tool.TypeString},
			{Name: "timeout", Type: tool.TypeInteger, Default: 30},
		},
		Handler: ts.handleSyncOperations,
	}
}

func (ts *Toolset) handleSyncOperations(ctx context.Context, params map[string]any) (any, error) {
	action, err := requiredString(params, "action")
	if err != nil {
		return nil, err
	}
	name, err := requiredString(params, "lock_name")
	if err != nil {
		return nil, err
	}

	switch action {
	case "create":
		if err := ts.Coordinator.CreateSignal(name); err != nil {
			return nil, appError(err)
		}
		return map[string]any{"success": true, "lock_name": name}, nil

	case "wait":
		timeout := secondsParam(params, "timeout", defaultWaitTimeout)
		triggered, err := ts.Coordinator.WaitSignal(ctx, name, timeout)
		if err != nil {
			return nil, appError(err)
		}
		return map[string]any{"success": triggered, "lock_name": name}, nil

	case "set":
		if err := ts.Coordinator.SetSignal(name); err != nil {
			return nil, appError(err)
		}
		return map[string]any{"success": true, "lock_name": name}, nil

	case "release":
		if err := ts.Coordinator.ReleaseSignal(name); err != nil {
			return nil, appError(err)
		}
		return map[string]any{"success": true, "lock_name": name}, nil

	default:
		return nil, rpc.Errorf(rpc.CodeApplication, "unsupported action: %s", action)
	}
}
