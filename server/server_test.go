package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/YantaoMou/mcp-droid/history"
	"github.com/YantaoMou/mcp-droid/rpc"
)

func newTestServer(t *testing.T) (*httptest.Server, history.Store) {
	t.Helper()
	store := history.NewMemoryStore(100)
	srv := NewServer(ServerConfig{
		Registry: newTestRegistry(t),
		History:  store,
		MaxBody:  1024,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

func postJSONRPC(t *testing.T, url, body string) rpc.Response {
	t.Helper()
	resp, err := http.Post(url+"/jsonrpc", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /jsonrpc: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var out rpc.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestServer_Health(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q", body["status"])
	}
}

func TestServer_ToolsList(t *testing.T) {
	ts, _ := newTestServer(t)

	out := postJSONRPC(t, ts.URL, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	if out.Error != nil {
		t.Fatalf("tools/list: %v", out.Error)
	}
	result := out.Result.(map[string]any)
	tools := result["tools"].([]any)
	if len(tools) == 0 {
		t.Fatal("tools/list returned no tools")
	}
	for _, raw := range tools {
		desc := raw.(map[string]any)
		name := desc["name"].(string)
		if name == "" {
			t.Error("tool listed with empty name")
		}
		if name == "list" || name == "call" {
			t.Errorf("meta-method %q must not be listed", name)
		}
		if _, ok := desc["inputSchema"].(map[string]any); !ok {
			t.Errorf("tool %q missing inputSchema", name)
		}
	}
}

func TestServer_DispatchAndHistory(t *testing.T) {
	ts, _ := newTestServer(t)

	out := postJSONRPC(t, ts.URL, `{"jsonrpc":"2.0","id":"a","method":"tools/echo","params":{"msg":"hello"}}`)
	if out.Error != nil {
		t.Fatalf("tools/echo: %v", out.Error)
	}
	if string(out.ID) != `"a"` {
		t.Errorf("id = %s", out.ID)
	}

	resp, err := http.Get(ts.URL + "/api/history?limit=10")
	if err != nil {
		t.Fatalf("GET /api/history: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("history status = %d", resp.StatusCode)
	}
	var body struct {
		Records []history.Record `json:"records"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Records) != 1 || body.Records[0].Tool != "echo" {
		t.Errorf("records = %+v", body.Records)
	}
}

func TestServer_HistoryRejectsBadLimit(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/history?limit=nope")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestServer_CORSPreflight(t *testing.T) {
	ts, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/jsonrpc", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow-origin = %q", got)
	}
}

func TestServer_BodyLimit(t *testing.T) {
	ts, _ := newTestServer(t)

	huge := `{"jsonrpc":"2.0","id":1,"method":"tools/echo","params":{"msg":"` +
		strings.Repeat("x", 4096) + `"}}`
	out := postJSONRPC(t, ts.URL, huge)
	if out.Error == nil || out.Error.Code != rpc.CodeInvalidRequest {
		t.Errorf("oversized body: error = %v, want invalid request", out.Error)
	}
}
