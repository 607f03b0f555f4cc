package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/cobra"
)

func TestArgsFlagParsesJSON(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("args", `{"network_id":"N_1","vlan_id":30}`, "")

	parsed, err := argsFlag(cmd)
	if err != nil {
		t.Fatal(err)
	}
	if parsed["network_id"] != "N_1" {
		t.Fatalf("parsed = %v", parsed)
	}
}

func TestArgsFlagRejectsBadJSON(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("args", "{broken", "")

	if _, err := argsFlag(cmd); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestCallRPCResultAndError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcEnvelope
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		switch req.Method {
		case "warden.classify":
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"level":"safe"}}`))
		default:
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"method not found"}}`))
		}
	}))
	defer server.Close()

	result, err := callRPC(server.URL, "warden.classify", map[string]any{"operation": "discover_networks"})
	if err != nil {
		t.Fatal(err)
	}
	var payload map[string]string
	if err := json.Unmarshal(result, &payload); err != nil {
		t.Fatal(err)
	}
	if payload["level"] != "safe" {
		t.Fatalf("result = %v", payload)
	}

	if _, err := callRPC(server.URL, "warden.bogus", nil); err == nil {
		t.Fatal("expected rpc error surfaced")
	}
}
