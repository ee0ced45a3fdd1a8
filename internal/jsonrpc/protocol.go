// Package jsonrpc exposes the console backend over JSON-RPC 2.0 and
// provides a client for it.
package jsonrpc

import (
	"encoding/json"
	"fmt"
)

// Version is the protocol version carried by every message.
const Version = "2.0"

// Method names.
const (
	MethodGetInfo                     = "getInfo"
	MethodGetNumberOfPersistenceUnits = "getNumberOfPersistenceUnits"
	MethodGetNumberOfEntityTypes      = "getNumberOfEntityTypes"
	MethodGetNumberOfNamedQueries     = "getNumberOfNamedQueries"
	MethodExecuteQuery                = "executeQuery"
	MethodUpdateProperty              = "updateProperty"
	MethodGetAllowQueries             = "getAllowQueries"
)

// Standard error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Request is a JSON-RPC request. A request without an ID is a notification.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// Response is a JSON-RPC response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// UpdatePropertyParams are the parameters of updateProperty.
type UpdatePropertyParams struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}
