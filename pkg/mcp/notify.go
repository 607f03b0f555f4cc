package mcp

import (
	"bufio"
	"encoding/json"
	"io"
)

type rpcNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// WriteNotification sends a framed JSON-RPC notification. Transports use it
// for server-initiated messages such as session announcements.
func WriteNotification(w io.Writer, method string, params any) error {
	payload, err := json.Marshal(rpcNotification{JSONRPC: "2.0", Method: method, Params: params})
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	return writeMessage(bw, payload)
}
