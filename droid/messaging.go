package droid

import (
	"context"
	"time"

	"github.com/YantaoMou/mcp-droid/rpc"
	"github.com/YantaoMou/mcp-droid/tool"
)

const defaultReceiveTimeout = 5 * time.Second

func (ts *Toolset) deviceMessagingTool() *tool.Tool {
	return &tool.Tool{
		Name: "device_messaging",
		Doc: `Exchange messages between devices through per-device mailboxes.

action: one of send, receive, clear
device_id: target device serial
message: message content, used by send
sender: sender identity recorded on the message, used by send
timeout: seconds to wait for messages, used by receive`,
		Params: []tool.ParamSpec{
			{Name: "action", Type: tool.TypeString},
			{Name: "device_id", Type: tool.TypeString},
			{Name: "message", Type: tool.TypeString, Default: ""},
			{Name: "sender", Type: tool.TypeString, Default: ""},
			{Name: "timeout", Type: tool.TypeInteger, Default: 5},
		},
		Handler: ts.handleDeviceMessaging,
	}
}

func (ts *Toolset) handleDeviceMessaging(ctx context.Context, params map[string]any) (any, error) {
	action, err := requiredString(params, "action")
	if err != nil {
		return nil, err
	}
	deviceID, err := requiredString(params, "device_id")
	if err != nil {
		return nil, err
	}

	switch action {
	case "send":
		message, err := requiredString(params, "message")
		if err != nil {
			return nil, err
		}
		sender := optionalString(params, "sender")
		if sender == "" {
			sender = ts.Sender
		}
		if err := ts.Coordinator.Send(ctx, deviceID, sender, message); err != nil {
			return nil, appError(err)
		}
		return map[string]any{"success": true, "device_id": deviceID}, nil

	case "receive":
		timeout := secondsParam(params, "timeout", defaultReceiveTimeout)
		messages, err := ts.Coordinator.Receive(ctx, deviceID, timeout)
		if err != nil {
			return nil, appError(err)
		}
		return map[string]any{
			"device_id": deviceID,
			"messages":  messages,
			"count":     len(messages),
		}, nil

	case "clear":
		cleared := ts.Coordinator.Clear(deviceID)
		return map[string]any{"success": true, "cleared": cleared}, nil

	default:
		return nil, rpc.Errorf(rpc.CodeApplication, "unsupported action: %s", action)
	}
}
