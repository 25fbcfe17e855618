// Package rpc defines the JSON-RPC 2.0 wire types and error taxonomy used by
// the mcp-droid dispatcher. The package is intentionally dependency-free so
// tool handlers and transports can share it without pulling in server code.
package rpc

import (
	"encoding/json"
	"fmt"
)

// Version is the only protocol version accepted on the wire.
const Version = "2.0"

// Reserved JSON-RPC error codes. CodeApplication is the generic code for
// typed failures raised by tool handlers themselves.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInternalError  = -32603
	CodeApplication    = -32000
)

// NullID is the id used when a request id could not be determined.
var NullID = json.RawMessage("null")

// Request is an inbound JSON-RPC 2.0 envelope. The id is kept raw so that
// string, number, and null ids are echoed back byte-for-byte.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  map[string]any  `json:"params,omitempty"`
}

// Response is an outbound JSON-RPC 2.0 envelope. Exactly one of Result or
// Error is populated.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result"`
	Error   *Error          `json:"error,omitempty"`
}

// MarshalJSON emits exactly one of result or error: a success envelope always
// carries result (a nil result is a legitimate null), an error envelope never
// does.
func (r Response) MarshalJSON() ([]byte, error) {
	if r.Error != nil {
		return json.Marshal(struct {
			JSONRPC string          `json:"jsonrpc"`
			ID      json.RawMessage `json:"id"`
			Error   *Error          `json:"error"`
		}{r.JSONRPC, normalizeID(r.ID), r.Error})
	}
	return json.Marshal(struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id"`
		Result  any             `json:"result"`
	}{r.JSONRPC, normalizeID(r.ID), r.Result})
}

// Error is the JSON-RPC error object. It doubles as the typed application
// error handlers return to pass a code and message through to the caller
// verbatim.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Errorf builds a typed error with a formatted message.
func Errorf(code int, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewResult builds a success response echoing the given id.
func NewResult(id json.RawMessage, result any) Response {
	return Response{JSONRPC: Version, ID: normalizeID(id), Result: result}
}

// NewError builds an error response echoing the given id.
func NewError(id json.RawMessage, err *Error) Response {
	return Response{JSONRPC: Version, ID: normalizeID(id), Error: err}
}

func normalizeID(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return NullID
	}
	return id
}
