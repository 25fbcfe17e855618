package droid

import (
	"context"

	"github.com/YantaoMou/mcp-droid/rpc"
	"github.com/YantaoMou/mcp-droid/tool"
)

func (ts *Toolset) scheduleGroupCommandTool() *tool.Tool {
	return &tool.Tool{
		Name: "schedule_group_command",
		Doc: `Schedule a recurring shell command against a device group.

group_name: group to run the command on
command: shell command to run
cron: five-field cron expression, evaluated in UTC`,
		Params: []tool.ParamSpec{
			{Name: "group_name", Type: tool.TypeString},
			{Name: "command", Type: tool.TypeString},
			{Name: "cron", Type: tool.TypeString},
		},
		Handler: ts.handleScheduleGroupCommand,
	}
}

func (ts *Toolset) handleScheduleGroupCommand(ctx context.Context, params map[string]any) (any, error) {
	group, err := requiredString(params, "group_name")
	if err != nil {
		return nil, err
	}
	command, err := requiredString(params, "command")
	if err != nil {
		return nil, err
	}
	cronExpr, err := requiredString(params, "cron")
	if err != nil {
		return nil, err
	}

	entry, err := ts.Scheduler.Add(group, command, cronExpr)
	if err != nil {
		return nil, rpc.Errorf(rpc.CodeApplication, "scheduling: %v", err)
	}
	return map[string]any{
		"id":          entry.ID,
		"group_name":  entry.Group,
		"next_run_at": entry.NextRunAt,
	}, nil
}

func (ts *Toolset) listScheduledCommandsTool() *tool.Tool {
	return &tool.Tool{
		Name:    "list_scheduled_commands",
		Doc:     "List scheduled group commands.",
		Handler: ts.handleListScheduledCommands,
	}
}

func (ts *Toolset) handleListScheduledCommands(ctx context.Context, params map[string]any) (any, error) {
	entries := ts.Scheduler.List()
	return map[string]any{"entries": entries, "count": len(entries)}, nil
}

func (ts *Toolset) cancelScheduledCommandTool() *tool.Tool {
	return &tool.Tool{
		Name: "cancel_scheduled_command",
		Doc: `Cancel a scheduled group command.

id: schedule entry id`,
		Params: []tool.ParamSpec{
			{Name: "id", Type: tool.TypeString},
		},
		Handler: ts.handleCancelScheduledCommand,
	}
}

func (ts *Toolset) handleCancelScheduledCommand(ctx context.Context, params map[string]any) (any, error) {
	id, err := requiredString(params, "id")
	if err != nil {
		return nil, err
	}
	if err := ts.Scheduler.Remove(id); err != nil {
		return nil, appError(err)
	}
	return map[string]any{"success": true, "id": id}, nil
}
