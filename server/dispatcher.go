package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/YantaoMou/mcp-droid/history"
	"github.com/YantaoMou/mcp-droid/rpc"
	"github.com/YantaoMou/mcp-droid/tool"
)

// DispatchObservation is one dispatched request as seen by an observer.
type DispatchObservation struct {
	Method     string
	Tool       string
	Success    bool
	ErrorCode  int
	DurationMS int64
}

// Observer receives one observation per dispatched request.
type Observer interface {
	ObserveDispatch(DispatchObservation)
}

// Dispatcher decodes JSON-RPC request bodies and routes them through the
// tool registry. It always produces exactly one response, errors included.
type Dispatcher struct {
	registry *tool.Registry
	store    history.Store
	observer Observer
	logger   *slog.Logger
}

// NewDispatcher wires a dispatcher to its registry. The history store and
// observer are optional.
func NewDispatcher(registry *tool.Registry, store history.Store, observer Observer, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		registry: registry,
		store:    store,
		observer: observer,
		logger:   logger,
	}
}

// idProbe pulls just the id out of a body that failed full validation, so
// error responses can still echo it.
type idProbe struct {
	ID json.RawMessage `json:"id"`
}

// Dispatch processes one raw request body and returns the response envelope.
func (d *Dispatcher) Dispatch(ctx context.Context, body []byte) rpc.Response {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return rpc.NewError(rpc.NullID, rpc.Errorf(rpc.CodeParseError, "empty request body"))
	}
	if trimmed[0] == '[' {
		return rpc.NewError(rpc.NullID, rpc.Errorf(rpc.CodeInvalidRequest, "batch requests are not supported"))
	}

	var req rpc.Request
	if err := json.Unmarshal(trimmed, &req); err != nil {
		var probe idProbe
		id := rpc.NullID
		if json.Unmarshal(trimmed, &probe) == nil && len(probe.ID) > 0 {
			id = probe.ID
		}
		// Well-formed JSON that is not a request object (a scalar, or an
		// object with mistyped members) failed validation, not parsing.
		if json.Valid(trimmed) {
			return rpc.NewError(id, rpc.Errorf(rpc.CodeInvalidRequest, "invalid request envelope: %v", err))
		}
		return rpc.NewError(id, rpc.Errorf(rpc.CodeParseError, "invalid JSON: %v", err))
	}

	if req.JSONRPC != rpc.Version {
		return rpc.NewError(req.ID, rpc.Errorf(rpc.CodeInvalidRequest, "jsonrpc must be %q", rpc.Version))
	}
	if req.Method == "" {
		return rpc.NewError(req.ID, rpc.Errorf(rpc.CodeInvalidRequest, "method is required"))
	}

	t, ok := d.registry.Lookup(req.Method)
	if !ok {
		return rpc.NewError(req.ID, rpc.Errorf(rpc.CodeMethodNotFound, "method not found: %s", req.Method))
	}

	params := req.Params
	if params == nil {
		params = map[string]any{}
	}

	started := time.Now()
	result, err := d.invoke(ctx, t, params)
	elapsed := time.Since(started)

	var rpcErr *rpc.Error
	if err != nil {
		if !errors.As(err, &rpcErr) {
			d.logger.Error("tool handler failed", "method", req.Method, "error", err)
			rpcErr = rpc.Errorf(rpc.CodeInternalError, "internal error")
		}
	}
	d.record(ctx, req.Method, params, rpcErr, elapsed)

	if rpcErr != nil {
		return rpc.NewError(req.ID, rpcErr)
	}
	return rpc.NewResult(req.ID, result)
}

// invoke runs the handler with panic containment. A panicking tool must not
// take the server down.
func (d *Dispatcher) invoke(ctx context.Context, t *tool.Tool, params map[string]any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("tool handler panicked", "tool", t.Name, "panic", r)
			err = rpc.Errorf(rpc.CodeInternalError, "internal error")
		}
	}()
	return t.Handler(ctx, params)
}

func (d *Dispatcher) record(ctx context.Context, method string, params map[string]any, rpcErr *rpc.Error, elapsed time.Duration) {
	obs := DispatchObservation{
		Method:     method,
		Tool:       strings.TrimPrefix(method, tool.MethodPrefix),
		Success:    rpcErr == nil,
		DurationMS: elapsed.Milliseconds(),
	}
	if rpcErr != nil {
		obs.ErrorCode = rpcErr.Code
	}
	if d.observer != nil {
		d.observer.ObserveDispatch(obs)
	}

	if d.store == nil {
		return
	}
	rec := history.Record{
		Method:     method,
		Tool:       obs.Tool,
		Params:     params,
		Success:    obs.Success,
		ErrorCode:  obs.ErrorCode,
		DurationMS: obs.DurationMS,
	}
	if rpcErr != nil {
		rec.ErrorMessage = rpcErr.Message
	}
	if err := d.store.Append(ctx, rec); err != nil {
		d.logger.Warn("appending invocation record", "error", err)
	}
}
