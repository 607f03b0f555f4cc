package mcp

import "encoding/json"

const protocolVersion = "2024-11-05"

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id,omitempty"`
	Result  interface{} `json:"result,omitempty"`
	Error   *rpcError   `json:"error,omitempty"`
}

type rpcError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// JSON-RPC error codes. The -32010 range carries guard outcomes that are
// errors for the caller but expected states for the daemon.
const (
	codeParseError      = -32700
	codeInvalidRequest  = -32600
	codeMethodNotFound  = -32601
	codeInvalidParams   = -32602
	codeInternal        = -32000
	codeBackupFailed    = -32010
	codeUndoUnavailable = -32011
	codeCapacityLimit   = -32012
)

type classifyParams struct {
	Operation string         `json:"operation"`
	Args      map[string]any `json:"args"`
}

type confirmRequestParams struct {
	Operation string         `json:"operation"`
	Args      map[string]any `json:"args"`
	SessionID string         `json:"session_id"`
	Client    string         `json:"client"`
	TenantID  string         `json:"tenant_id"`
}

type confirmRespondParams struct {
	RequestID string `json:"request_id"`
	Approved  bool   `json:"approved"`
	Typed     string `json:"typed_confirmation"`
}

type backupBeforeParams struct {
	Operation string         `json:"operation"`
	Args      map[string]any `json:"args"`
	SessionID string         `json:"session_id"`
	Client    string         `json:"client"`
	TenantID  string         `json:"tenant_id"`
}

type trackParams struct {
	Operation  string         `json:"operation"`
	Args       map[string]any `json:"args"`
	SessionID  string         `json:"session_id"`
	BackupPath string         `json:"backup_path"`
}

type sessionParams struct {
	SessionID string `json:"session_id"`
}

type undoExecuteParams struct {
	SessionID string `json:"session_id"`
	TenantID  string `json:"tenant_id"`
}

type dryrunDetectParams struct {
	Message string `json:"message"`
}

type dryrunExecuteParams struct {
	Operation string         `json:"operation"`
	Args      map[string]any `json:"args"`
}
