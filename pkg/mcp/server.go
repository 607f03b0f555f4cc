package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cnl-ai/warden/pkg/safety"
	"github.com/cnl-ai/warden/pkg/types"
	"github.com/cnl-ai/warden/pkg/version"
	"log/slog"
)

// Server speaks JSON-RPC 2.0 over a framed stream and dispatches every
// method to the safety guard. The same dispatch backs the stdio, gateway
// and HTTP transports.
type Server struct {
	guard  *safety.Guard
	logger *slog.Logger
}

func NewServer(guard *safety.Guard) *Server {
	return &Server{guard: guard}
}

func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

func (s *Server) Serve(ctx context.Context, reader io.Reader, writer io.Writer) error {
	bufReader := bufio.NewReader(reader)
	bufWriter := bufio.NewWriter(writer)

	for {
		payload, err := readMessage(bufReader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			s.logError("rpc_read_failed", "error", err)
			return err
		}

		var req rpcRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			s.logWarn("rpc_parse_error", "error", err)
			_ = writeError(bufWriter, req.ID, &rpcError{Code: codeParseError, Message: "parse error", Data: err.Error()})
			continue
		}

		if req.Method == "" {
			_ = writeError(bufWriter, req.ID, &rpcError{Code: codeInvalidRequest, Message: "invalid request", Data: "missing method"})
			continue
		}

		result, rpcErr := s.Dispatch(ctx, req.Method, req.Params)
		if rpcErr != nil {
			_ = writeError(bufWriter, req.ID, rpcErr)
			continue
		}
		_ = writeResult(bufWriter, req.ID, result)
	}
}

func (s *Server) ServeStdio(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Dispatch routes one method call. It is exported for transports that do
// their own framing.
func (s *Server) Dispatch(ctx context.Context, method string, params json.RawMessage) (any, *rpcError) {
	switch method {
	case "ping":
		return map[string]string{"message": "pong"}, nil
	case "initialize":
		return map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities": map[string]any{
				"experimental": map[string]any{},
			},
			"serverInfo": map[string]any{
				"name":    "warden",
				"version": version.String(),
			},
		}, nil
	case "warden.classify":
		return s.handleClassify(params)
	case "warden.confirm.request":
		return s.handleConfirmRequest(params)
	case "warden.confirm.respond":
		return s.handleConfirmRespond(params)
	case "warden.backup.before":
		return s.handleBackupBefore(ctx, params)
	case "warden.backups.list":
		return s.handleBackupsList(params)
	case "warden.operation.track":
		return s.handleTrack(params)
	case "warden.undo.info":
		return s.handleUndoInfo(params)
	case "warden.undo.execute":
		return s.handleUndoExecute(ctx, params)
	case "warden.dryrun.detect":
		return s.handleDryrunDetect(params)
	case "warden.dryrun.execute":
		return s.handleDryrunExecute(params)
	case "warden.session.end":
		return s.handleSessionEnd(params)
	default:
		return nil, &rpcError{Code: codeMethodNotFound, Message: "method not found", Data: method}
	}
}

func (s *Server) handleClassify(params json.RawMessage) (any, *rpcError) {
	var p classifyParams
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	if p.Operation == "" {
		return nil, invalidParams("missing operation")
	}
	return s.guard.Classify(p.Operation, p.Args), nil
}

func (s *Server) handleConfirmRequest(params json.RawMessage) (any, *rpcError) {
	var p confirmRequestParams
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	if p.Operation == "" {
		return nil, invalidParams("missing operation")
	}
	check, request := s.guard.RequestConfirmation(p.Operation, p.Args, p.SessionID, p.Client, p.TenantID)
	return map[string]any{
		"check":   check,
		"request": request,
	}, nil
}

func (s *Server) handleConfirmRespond(params json.RawMessage) (any, *rpcError) {
	var p confirmRespondParams
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	if p.RequestID == "" {
		return nil, invalidParams("missing request_id")
	}
	resolution := s.guard.Confirm(p.RequestID, p.Approved, p.Typed)
	result := map[string]any{"decision": resolution.Decision}
	if resolution.Decision == types.DecisionExecute {
		result["operation"] = resolution.Context.Operation
		result["args"] = resolution.Context.Args
	}
	return result, nil
}

func (s *Server) handleBackupBefore(ctx context.Context, params json.RawMessage) (any, *rpcError) {
	var p backupBeforeParams
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	if p.Operation == "" {
		return nil, invalidParams("missing operation")
	}
	result, err := s.guard.BeforeOperation(ctx, p.Operation, p.Args, p.Client, p.SessionID, p.TenantID)
	if err != nil {
		s.logWarn("backup_before_failed", "operation", p.Operation, "error", err)
		return nil, guardError(err)
	}
	return result, nil
}

func (s *Server) handleBackupsList(params json.RawMessage) (any, *rpcError) {
	var p sessionParams
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	records := s.guard.ListBackups(p.SessionID)
	return map[string]any{"backups": records, "count": len(records)}, nil
}

func (s *Server) handleTrack(params json.RawMessage) (any, *rpcError) {
	var p trackParams
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	if p.Operation == "" {
		return nil, invalidParams("missing operation")
	}
	s.guard.TrackOperation(p.SessionID, p.Operation, p.Args, p.BackupPath)
	return map[string]any{"tracked": true}, nil
}

func (s *Server) handleUndoInfo(params json.RawMessage) (any, *rpcError) {
	var p sessionParams
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	return s.guard.UndoInfo(p.SessionID), nil
}

func (s *Server) handleUndoExecute(ctx context.Context, params json.RawMessage) (any, *rpcError) {
	var p undoExecuteParams
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	result, err := s.guard.ExecuteUndo(ctx, p.SessionID, p.TenantID)
	if err != nil {
		s.logWarn("undo_failed", "session", p.SessionID, "error", err)
		return nil, guardError(err)
	}
	return result, nil
}

func (s *Server) handleDryrunDetect(params json.RawMessage) (any, *rpcError) {
	var p dryrunDetectParams
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	return map[string]any{"dry_run": s.guard.DetectDryRun(p.Message)}, nil
}

func (s *Server) handleDryrunExecute(params json.RawMessage) (any, *rpcError) {
	var p dryrunExecuteParams
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	if p.Operation == "" {
		return nil, invalidParams("missing operation")
	}
	return s.guard.DryRun(p.Operation, p.Args), nil
}

func (s *Server) handleSessionEnd(params json.RawMessage) (any, *rpcError) {
	var p sessionParams
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	if p.SessionID == "" {
		return nil, invalidParams("missing session_id")
	}
	s.guard.EndSession(p.SessionID)
	return map[string]any{"ended": true}, nil
}

func unmarshalParams(params json.RawMessage, dst any) *rpcError {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, dst); err != nil {
		return invalidParams(err.Error())
	}
	return nil
}

func invalidParams(detail string) *rpcError {
	return &rpcError{Code: codeInvalidParams, Message: "invalid params", Data: detail}
}

// guardError maps guard sentinels onto stable wire codes so callers can
// branch without parsing messages.
func guardError(err error) *rpcError {
	switch {
	case errors.Is(err, safety.ErrBackupFailed):
		return &rpcError{Code: codeBackupFailed, Message: "backup failed", Data: err.Error()}
	case errors.Is(err, safety.ErrUndoUnavailable):
		return &rpcError{Code: codeUndoUnavailable, Message: "undo unavailable", Data: err.Error()}
	case errors.Is(err, safety.ErrCapacityTimeout):
		return &rpcError{Code: codeCapacityLimit, Message: "capacity wait exceeded", Data: err.Error()}
	default:
		return &rpcError{Code: codeInternal, Message: "operation failed", Data: err.Error()}
	}
}

func writeResult(w *bufio.Writer, id interface{}, result interface{}) error {
	if id == nil {
		return nil
	}
	resp := rpcResponse{JSONRPC: "2.0", ID: id, Result: result}
	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return writeMessage(w, payload)
}

func writeError(w *bufio.Writer, id interface{}, rpcErr *rpcError) error {
	if id == nil {
		return nil
	}
	resp := rpcResponse{JSONRPC: "2.0", ID: id, Error: rpcErr}
	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return writeMessage(w, payload)
}

func writeMessage(w *bufio.Writer, payload []byte) error {
	if _, err := fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(payload)); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	return w.Flush()
}

func readMessage(r *bufio.Reader) ([]byte, error) {
	for {
		line, err := r.ReadString('\n')
		if err != nil && len(line) == 0 {
			return nil, err
		}
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "{") {
			return []byte(trimmed), nil
		}

		contentLength := 0
		if strings.HasPrefix(strings.ToLower(trimmed), "content-length:") {
			value := strings.TrimSpace(strings.SplitN(trimmed, ":", 2)[1])
			length, parseErr := strconv.Atoi(value)
			if parseErr != nil {
				return nil, parseErr
			}
			contentLength = length
		}

		for {
			headerLine, readErr := r.ReadString('\n')
			if readErr != nil && len(headerLine) == 0 {
				return nil, readErr
			}
			header := strings.TrimRight(headerLine, "\r\n")
			if header == "" {
				break
			}
			if strings.HasPrefix(strings.ToLower(header), "content-length:") {
				value := strings.TrimSpace(strings.SplitN(header, ":", 2)[1])
				length, parseErr := strconv.Atoi(value)
				if parseErr != nil {
					return nil, parseErr
				}
				contentLength = length
			}
		}

		if contentLength <= 0 {
			return nil, fmt.Errorf("missing Content-Length")
		}

		payload := make([]byte, contentLength)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, err
		}
		return payload, nil
	}
}

func (s *Server) logWarn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func (s *Server) logError(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}
