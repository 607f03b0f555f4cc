package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/cnl-ai/warden/internal/ratelimit"
	"github.com/cnl-ai/warden/pkg/safety"
	"github.com/cnl-ai/warden/pkg/types"
)

type stubProvider struct {
	state map[string]any
}

func (p *stubProvider) ReadState(ctx context.Context, operation string, args map[string]any) (map[string]any, error) {
	return p.state, nil
}

func (p *stubProvider) WriteState(ctx context.Context, operation string, args map[string]any, state map[string]any) error {
	p.state = state
	return nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	provider := &stubProvider{state: map[string]any{"vlan": 10}}
	guard := safety.NewGuard(safety.Options{
		Reader:     provider,
		Writer:     provider,
		BackupsDir: t.TempDir(),
		RateLimit:  ratelimit.Options{RequestsPerSecond: 100},
	})
	return NewServer(guard)
}

func dispatch(t *testing.T, s *Server, method string, params any) (any, *rpcError) {
	t.Helper()
	var raw json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			t.Fatal(err)
		}
		raw = data
	}
	return s.Dispatch(context.Background(), method, raw)
}

func TestDispatchClassify(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	result, rpcErr := dispatch(t, s, "warden.classify", map[string]any{
		"operation": "delete_vlan",
		"args":      map[string]any{"vlan_id": 10},
	})
	if rpcErr != nil {
		t.Fatalf("rpc error: %+v", rpcErr)
	}
	check, ok := result.(types.SafetyCheck)
	if !ok {
		t.Fatalf("result type %T", result)
	}
	if check.Level != types.LevelDangerous || check.Confirmation != types.ConfirmTyped {
		t.Fatalf("check = %+v", check)
	}
}

func TestDispatchConfirmFlow(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	result, rpcErr := dispatch(t, s, "warden.confirm.request", map[string]any{
		"operation":  "configure_ssid",
		"args":       map[string]any{"network_id": "N_1", "ssid_number": 1},
		"session_id": "s1",
		"tenant_id":  "O_1",
	})
	if rpcErr != nil {
		t.Fatalf("rpc error: %+v", rpcErr)
	}
	request := result.(map[string]any)["request"].(*types.ConfirmationRequest)
	if request == nil {
		t.Fatal("moderate operation raised no request")
	}

	result, rpcErr = dispatch(t, s, "warden.confirm.respond", map[string]any{
		"request_id": request.ID,
		"approved":   true,
	})
	if rpcErr != nil {
		t.Fatalf("rpc error: %+v", rpcErr)
	}
	outcome := result.(map[string]any)
	if outcome["decision"] != types.DecisionExecute {
		t.Fatalf("decision = %v", outcome["decision"])
	}
	if outcome["operation"] != "configure_ssid" {
		t.Fatalf("operation = %v", outcome["operation"])
	}
}

func TestDispatchUndoErrorCode(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	_, rpcErr := dispatch(t, s, "warden.undo.execute", map[string]any{
		"session_id": "empty",
		"tenant_id":  "O_1",
	})
	if rpcErr == nil || rpcErr.Code != codeUndoUnavailable {
		t.Fatalf("rpc error = %+v", rpcErr)
	}
}

func TestDispatchUnknownMethod(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	_, rpcErr := dispatch(t, s, "warden.reboot.everything", nil)
	if rpcErr == nil || rpcErr.Code != codeMethodNotFound {
		t.Fatalf("rpc error = %+v", rpcErr)
	}
}

func TestDispatchMissingOperation(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	_, rpcErr := dispatch(t, s, "warden.classify", map[string]any{})
	if rpcErr == nil || rpcErr.Code != codeInvalidParams {
		t.Fatalf("rpc error = %+v", rpcErr)
	}
}

func TestServeFramedRoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	payload, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: "warden.dryrun.detect", Params: json.RawMessage(`{"message":"preview the change"}`)})
	if err != nil {
		t.Fatal(err)
	}
	input := fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(payload), payload)

	var out bytes.Buffer
	if err := s.Serve(context.Background(), strings.NewReader(input), &out); err != nil {
		t.Fatal(err)
	}

	body := out.String()
	idx := strings.Index(body, "\r\n\r\n")
	if idx < 0 {
		t.Fatalf("no framed response in %q", body)
	}
	var resp struct {
		Result map[string]bool `json:"result"`
		Error  *rpcError       `json:"error"`
	}
	if err := json.Unmarshal([]byte(body[idx+4:]), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error != nil || !resp.Result["dry_run"] {
		t.Fatalf("response = %+v", resp)
	}
}
