package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/YantaoMou/mcp-droid/history"
	"github.com/YantaoMou/mcp-droid/rpc"
	"github.com/YantaoMou/mcp-droid/tool"
)

func newTestRegistry(t *testing.T) *tool.Registry {
	t.Helper()
	r := tool.NewRegistry(nil)
	r.Register(&tool.Tool{
		Name: "echo",
		Doc:  "Echo the message back.\n\nmsg: the message",
		Params: []tool.ParamSpec{
			{Name: "msg", Type: tool.TypeString},
		},
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			return map[string]any{"echoed": params["msg"]}, nil
		},
	})
	r.Register(&tool.Tool{
		Name: "fail_typed",
		Doc:  "Fail with an application error.",
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			return nil, rpc.Errorf(rpc.CodeApplication, "device not connected: d9")
		},
	})
	r.Register(&tool.Tool{
		Name: "fail_plain",
		Doc:  "Fail with an untyped error.",
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			return nil, errors.New("secret adb path /opt/adb broke")
		},
	})
	r.Register(&tool.Tool{
		Name: "noop",
		Doc:  "Return nothing.",
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			return nil, nil
		},
	})
	r.Register(&tool.Tool{
		Name: "explode",
		Doc:  "Panic.",
		Handler: func(ctx context.Context, params map[string]any) (any, error) {
			panic("boom")
		},
	})
	return r
}

func dispatch(t *testing.T, d *Dispatcher, body string) rpc.Response {
	t.Helper()
	return d.Dispatch(context.Background(), []byte(body))
}

func TestDispatch_Success(t *testing.T) {
	d := NewDispatcher(newTestRegistry(t), nil, nil, nil)

	resp := dispatch(t, d, `{"jsonrpc":"2.0","id":1,"method":"tools/echo","params":{"msg":"hi"}}`)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	if resp.JSONRPC != "2.0" {
		t.Errorf("jsonrpc = %q", resp.JSONRPC)
	}
	if string(resp.ID) != "1" {
		t.Errorf("id = %s, want 1", resp.ID)
	}
	result := resp.Result.(map[string]any)
	if result["echoed"] != "hi" {
		t.Errorf("result = %v", result)
	}
}

func TestDispatch_IDEcho(t *testing.T) {
	d := NewDispatcher(newTestRegistry(t), nil, nil, nil)

	tests := []struct {
		id   string
		want string
	}{
		{`"abc"`, `"abc"`},
		{`42`, `42`},
		{`null`, `null`},
	}
	for _, tt := range tests {
		body := fmt.Sprintf(`{"jsonrpc":"2.0","id":%s,"method":"tools/echo","params":{"msg":"x"}}`, tt.id)
		resp := dispatch(t, d, body)
		if string(resp.ID) != tt.want {
			t.Errorf("id %s echoed as %s, want %s", tt.id, resp.ID, tt.want)
		}
	}

	// Missing id normalizes to null.
	resp := dispatch(t, d, `{"jsonrpc":"2.0","method":"tools/echo","params":{"msg":"x"}}`)
	if string(resp.ID) != "null" {
		t.Errorf("missing id echoed as %s, want null", resp.ID)
	}
}

func TestDispatch_EmptyBody(t *testing.T) {
	d := NewDispatcher(newTestRegistry(t), nil, nil, nil)

	for _, body := range []string{"", "   \n\t"} {
		resp := dispatch(t, d, body)
		if resp.Error == nil || resp.Error.Code != rpc.CodeParseError {
			t.Errorf("empty body %q: error = %v, want parse error", body, resp.Error)
		}
		if string(resp.ID) != "null" {
			t.Errorf("empty body id = %s, want null", resp.ID)
		}
	}
}

func TestDispatch_BatchRejected(t *testing.T) {
	d := NewDispatcher(newTestRegistry(t), nil, nil, nil)

	resp := dispatch(t, d, `[{"jsonrpc":"2.0","id":1,"method":"tools/echo"}]`)
	if resp.Error == nil || resp.Error.Code != rpc.CodeInvalidRequest {
		t.Fatalf("batch: error = %v, want invalid request", resp.Error)
	}
	if string(resp.ID) != "null" {
		t.Errorf("batch id = %s, want null", resp.ID)
	}
}

func TestDispatch_MalformedJSON(t *testing.T) {
	d := NewDispatcher(newTestRegistry(t), nil, nil, nil)

	resp := dispatch(t, d, `{"jsonrpc":"2.0","id":1,`)
	if resp.Error == nil || resp.Error.Code != rpc.CodeParseError {
		t.Fatalf("malformed: error = %v, want parse error", resp.Error)
	}
}

func TestDispatch_InvalidRequest(t *testing.T) {
	d := NewDispatcher(newTestRegistry(t), nil, nil, nil)

	tests := []struct {
		name string
		body string
	}{
		{"wrong version", `{"jsonrpc":"1.0","id":1,"method":"tools/echo"}`},
		{"missing version", `{"id":1,"method":"tools/echo"}`},
		{"missing method", `{"jsonrpc":"2.0","id":1}`},
	}
	for _, tt := range tests {
		resp := dispatch(t, d, tt.body)
		if resp.Error == nil || resp.Error.Code != rpc.CodeInvalidRequest {
			t.Errorf("%s: error = %v, want invalid request", tt.name, resp.Error)
		}
		if string(resp.ID) != "1" {
			t.Errorf("%s: id = %s, want 1", tt.name, resp.ID)
		}
	}
}

func TestDispatch_NonObjectBodyIsInvalidRequest(t *testing.T) {
	d := NewDispatcher(newTestRegistry(t), nil, nil, nil)

	for _, body := range []string{`42`, `"x"`, `true`} {
		resp := dispatch(t, d, body)
		if resp.Error == nil || resp.Error.Code != rpc.CodeInvalidRequest {
			t.Errorf("body %s: error = %v, want invalid request", body, resp.Error)
		}
		if string(resp.ID) != "null" {
			t.Errorf("body %s: id = %s, want null", body, resp.ID)
		}
	}
}

func TestDispatch_NilResultMarshalsAsNull(t *testing.T) {
	d := NewDispatcher(newTestRegistry(t), nil, nil, nil)

	resp := dispatch(t, d, `{"jsonrpc":"2.0","id":1,"method":"tools/noop"}`)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	result, hasResult := decoded["result"]
	if !hasResult {
		t.Fatalf("success response must carry a result field even when null, got %s", raw)
	}
	if result != nil {
		t.Errorf("result = %v, want null", result)
	}
	if _, hasError := decoded["error"]; hasError {
		t.Error("success response must not carry an error field")
	}
}

func TestDispatch_MethodNotFound(t *testing.T) {
	d := NewDispatcher(newTestRegistry(t), nil, nil, nil)

	resp := dispatch(t, d, `{"jsonrpc":"2.0","id":7,"method":"tools/nope"}`)
	if resp.Error == nil || resp.Error.Code != rpc.CodeMethodNotFound {
		t.Fatalf("error = %v, want method not found", resp.Error)
	}
}

func TestDispatch_TypedErrorPassesThrough(t *testing.T) {
	d := NewDispatcher(newTestRegistry(t), nil, nil, nil)

	resp := dispatch(t, d, `{"jsonrpc":"2.0","id":1,"method":"tools/fail_typed"}`)
	if resp.Error == nil {
		t.Fatal("expected an error response")
	}
	if resp.Error.Code != rpc.CodeApplication {
		t.Errorf("code = %d, want %d", resp.Error.Code, rpc.CodeApplication)
	}
	if resp.Error.Message != "device not connected: d9" {
		t.Errorf("message = %q", resp.Error.Message)
	}
}

func TestDispatch_PlainErrorBecomesGenericInternal(t *testing.T) {
	d := NewDispatcher(newTestRegistry(t), nil, nil, nil)

	resp := dispatch(t, d, `{"jsonrpc":"2.0","id":1,"method":"tools/fail_plain"}`)
	if resp.Error == nil || resp.Error.Code != rpc.CodeInternalError {
		t.Fatalf("error = %v, want internal error", resp.Error)
	}
	if resp.Error.Message != "internal error" {
		t.Errorf("internal detail leaked: %q", resp.Error.Message)
	}
}

func TestDispatch_PanicContained(t *testing.T) {
	d := NewDispatcher(newTestRegistry(t), nil, nil, nil)

	resp := dispatch(t, d, `{"jsonrpc":"2.0","id":1,"method":"tools/explode"}`)
	if resp.Error == nil || resp.Error.Code != rpc.CodeInternalError {
		t.Fatalf("error = %v, want internal error", resp.Error)
	}

	// Dispatcher stays usable afterwards.
	resp = dispatch(t, d, `{"jsonrpc":"2.0","id":2,"method":"tools/echo","params":{"msg":"still up"}}`)
	if resp.Error != nil {
		t.Fatalf("dispatcher broken after panic: %v", resp.Error)
	}
}

func TestDispatch_ResultErrorExclusive(t *testing.T) {
	d := NewDispatcher(newTestRegistry(t), nil, nil, nil)

	for _, body := range []string{
		`{"jsonrpc":"2.0","id":1,"method":"tools/echo","params":{"msg":"x"}}`,
		`{"jsonrpc":"2.0","id":1,"method":"tools/fail_typed"}`,
	} {
		resp := dispatch(t, d, body)
		raw, err := json.Marshal(resp)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var decoded map[string]any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		_, hasResult := decoded["result"]
		_, hasError := decoded["error"]
		if hasResult == hasError {
			t.Errorf("response %s has result=%v error=%v, want exactly one", raw, hasResult, hasError)
		}
	}
}

func TestDispatch_MetaCall(t *testing.T) {
	d := NewDispatcher(newTestRegistry(t), nil, nil, nil)

	// tools/call reaches the same handler as direct addressing.
	resp := dispatch(t, d, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"echo","parameters":{"msg":"via call"}}}`)
	if resp.Error != nil {
		t.Fatalf("tools/call: %v", resp.Error)
	}
	outer := resp.Result.(map[string]any)
	inner := outer["result"].(map[string]any)
	if inner["echoed"] != "via call" {
		t.Errorf("result = %v", inner)
	}

	resp = dispatch(t, d, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"nope"}}`)
	if resp.Error == nil || resp.Error.Code != rpc.CodeMethodNotFound {
		t.Errorf("unknown tool via call: error = %v, want method not found", resp.Error)
	}
}

func TestDispatch_RecordsHistory(t *testing.T) {
	store := history.NewMemoryStore(10)
	d := NewDispatcher(newTestRegistry(t), store, nil, nil)

	dispatch(t, d, `{"jsonrpc":"2.0","id":1,"method":"tools/echo","params":{"msg":"x"}}`)
	dispatch(t, d, `{"jsonrpc":"2.0","id":2,"method":"tools/fail_typed"}`)

	records, err := store.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	// Newest first.
	if records[0].Tool != "fail_typed" || records[0].Success {
		t.Errorf("record[0] = %+v", records[0])
	}
	if records[0].ErrorCode != rpc.CodeApplication {
		t.Errorf("error code = %d", records[0].ErrorCode)
	}
	if records[1].Tool != "echo" || !records[1].Success {
		t.Errorf("record[1] = %+v", records[1])
	}
}

type recordingObserver struct {
	observations []DispatchObservation
}

func (o *recordingObserver) ObserveDispatch(obs DispatchObservation) {
	o.observations = append(o.observations, obs)
}

func TestDispatch_NotifiesObserver(t *testing.T) {
	obs := &recordingObserver{}
	d := NewDispatcher(newTestRegistry(t), nil, obs, nil)

	dispatch(t, d, `{"jsonrpc":"2.0","id":1,"method":"tools/echo","params":{"msg":"x"}}`)

	if len(obs.observations) != 1 {
		t.Fatalf("observations = %d, want 1", len(obs.observations))
	}
	got := obs.observations[0]
	if got.Method != "tools/echo" || got.Tool != "echo" || !got.Success {
		t.Errorf("observation = %+v", got)
	}
}
