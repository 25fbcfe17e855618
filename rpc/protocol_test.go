package rpc

import (
	"encoding/json"
	"testing"
)

func TestNewResult_EchoesID(t *testing.T) {
	tests := []struct {
		name string
		id   json.RawMessage
		want string
	}{
		{name: "number", id: json.RawMessage(`1`), want: `1`},
		{name: "string", id: json.RawMessage(`"abc"`), want: `"abc"`},
		{name: "null", id: json.RawMessage(`null`), want: `null`},
		{name: "absent", id: nil, want: `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewResult(tt.id, map[string]any{"ok": true})
			if got := string(resp.ID); got != tt.want {
				t.Errorf("ID = %s, want %s", got, tt.want)
			}
			if resp.JSONRPC != Version {
				t.Errorf("JSONRPC = %q, want %q", resp.JSONRPC, Version)
			}
		})
	}
}

func TestResponse_ResultAndErrorMutuallyExclusive(t *testing.T) {
	errResp := NewError(json.RawMessage(`5`), Errorf(CodeMethodNotFound, "method not found: x"))

	raw, err := json.Marshal(errResp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := decoded["result"]; ok {
		t.Error("error response must not carry a result field")
	}
	if _, ok := decoded["error"]; !ok {
		t.Error("error response must carry an error field")
	}
	if decoded["id"] != float64(5) {
		t.Errorf("id = %v, want 5", decoded["id"])
	}
}

func TestResponse_NilResultMarshalsAsNull(t *testing.T) {
	resp := NewResult(json.RawMessage(`1`), nil)

	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := decoded["result"]; !ok {
		t.Errorf("success response must carry a result field even when null, got %s", raw)
	}
	if decoded["result"] != nil {
		t.Errorf("result = %v, want null", decoded["result"])
	}
	if _, ok := decoded["error"]; ok {
		t.Error("success response must not carry an error field")
	}
}

func TestError_Message(t *testing.T) {
	err := Errorf(CodeApplication, "device %s not connected", "d1")
	if err.Code != CodeApplication {
		t.Errorf("Code = %d, want %d", err.Code, CodeApplication)
	}
	want := "rpc error -32000: device d1 not connected"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
