package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/YantaoMou/mcp-droid/tool"
)

func TestToolsCmd_TableOutput(t *testing.T) {
	cmd := NewToolsCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("tools: %v", err)
	}

	text := out.String()
	for _, name := range []string{"device_messaging", "sync_operations", "device_group_actions", "share_between_devices"} {
		if !strings.Contains(text, name) {
			t.Errorf("output missing tool %q:\n%s", name, text)
		}
	}
	if strings.Contains(text, "\nlist\t") || strings.Contains(text, "\ncall\t") {
		t.Error("meta-methods must not be listed")
	}
}

func TestToolsCmd_JSONOutput(t *testing.T) {
	cmd := NewToolsCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--json"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("tools --json: %v", err)
	}

	var descriptors []tool.Descriptor
	if err := json.Unmarshal(out.Bytes(), &descriptors); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(descriptors) == 0 {
		t.Fatal("no descriptors emitted")
	}
	for _, d := range descriptors {
		if d.Name == "" || d.InputSchema == nil {
			t.Errorf("incomplete descriptor: %+v", d)
		}
	}
}

func TestExitError(t *testing.T) {
	err := exitError(exitRuntime, "server error: %v", "boom")
	if err.Code != exitRuntime {
		t.Errorf("code = %d", err.Code)
	}
	if err.Error() != "server error: boom" {
		t.Errorf("message = %q", err.Error())
	}
}
