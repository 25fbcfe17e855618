package droid

import (
	"context"

	"github.com/YantaoMou/mcp-droid/rpc"
	"github.com/YantaoMou/mcp-droid/tool"
)

func (ts *Toolset) deviceGroupActionsTool() *tool.Tool {
	return &tool.Tool{
		Name: "device_group_actions",
		Doc: `Manage named device groups and run a command on every member.

action: one of create, list, execute, delete
group_name: group name
device_ids: member device serials, used by create
command: shell command, used by execute`,
		Params: []tool.ParamSpec{
			{Name: "action", Type: tool.TypeString},
			{Name: "group_name", Type: tool.TypeString, Default: ""},
			{Name: "device_ids", Type: tool.TypeArray, Items: tool.TypeString, Default: []any{}},
			{Name: "command", Type: tool.TypeString, Default: ""},
		},
		Handler: ts.handleDeviceGroupActions,
	}
}

func (ts *Toolset) handleDeviceGroupActions(ctx context.Context, params map[string]any) (any, error) {
	action, err := requiredString(params, "action")
	if err != nil {
		return nil, err
	}

	switch action {
	case "create":
		name, err := requiredString(params, "group_name")
		if err != nil {
			return nil, err
		}
		ids := stringSliceParam(params, "device_ids")
		if len(ids) == 0 {
			return nil, rpc.Errorf(rpc.CodeApplication, "device_ids is required")
		}
		if err := ts.Coordinator.CreateGroup(ctx, name, ids); err != nil {
			return nil, appError(err)
		}
		return map[string]any{"success": true, "group_name": name, "device_count": len(ids)}, nil

	case "list":
		groups := ts.Coordinator.Groups()
		return map[string]any{"groups": groups, "count": len(groups)}, nil

	case "execute":
		name, err := requiredString(params, "group_name")
		if err != nil {
			return nil, err
		}
		command, err := requiredString(params, "command")
		if err != nil {
			return nil, err
		}
		results, err := ts.Coordinator.ExecuteGroup(ctx, name, command)
		if err != nil {
			return nil, appError(err)
		}
		return map[string]any{"group_name": name, "results": results}, nil

	case "delete":
		name, err := requiredString(params, "group_name")
		if err != nil {
			return nil, err
		}
		if err := ts.Coordinator.DeleteGroup(name); err != nil {
			return nil, appError(err)
		}
		return map[string]any{"success": true, "group_name": name}, nil

	default:
		return nil, rpc.Errorf(rpc.CodeApplication, "unsupported action: %s", action)
	}
}
