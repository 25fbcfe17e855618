package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/YantaoMou/mcp-droid/rpc"
	"github.com/YantaoMou/mcp-droid/tool"
)

// NewCallCmd creates the "call" subcommand, which invokes one tool on a
// running server over JSON-RPC.
func NewCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Call a tool on a running server",
		Args:  cobra.ExactArgs(1),
		RunE:  runCall,
	}
	cmd.Flags().String("server", "http://127.0.0.1:8080", "Server base URL")
	cmd.Flags().String("params", "{}", "Tool parameters as a JSON object")
	cmd.Flags().Duration("timeout", 60*time.Second, "Request timeout")
	return cmd
}

func runCall(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(args[0])
	baseURL, _ := cmd.Flags().GetString("server")
	rawParams, _ := cmd.Flags().GetString("params")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	var params map[string]any
	if err := json.Unmarshal([]byte(rawParams), &params); err != nil {
		return exitError(exitConfig, "invalid --params: %v", err)
	}

	req := rpc.Request{
		JSONRPC: rpc.Version,
		ID:      json.RawMessage(`1`),
		Method:  tool.MethodPrefix + name,
		Params:  params,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: timeout}
	httpResp, err := client.Post(strings.TrimRight(baseURL, "/")+"/jsonrpc", "application/json", bytes.NewReader(body))
	if err != nil {
		return exitError(exitRuntime, "calling server: %v", err)
	}
	defer httpResp.Body.Close()

	var resp rpc.Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return exitError(exitRuntime, "decoding response: %v", err)
	}

	if resp.Error != nil {
		return exitError(exitRuntime, "tool error %d: %s", resp.Error.Code, resp.Error.Message)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp.Result); err != nil {
		return fmt.Errorf("printing result: %w", err)
	}
	return nil
}
