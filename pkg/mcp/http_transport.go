package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const httpShutdownTimeout = 5 * time.Second

// ServeHTTP exposes the JSON-RPC surface over HTTP, with SSE fan-out of
// every response for observers.
func ServeHTTP(ctx context.Context, server *Server, addr string) error {
	transport := &httpTransport{
		server: server,
		subs:   make(map[chan []byte]struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/rpc", transport.handleRPC)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

type httpTransport struct {
	server *Server

	mu   sync.Mutex
	subs map[chan []byte]struct{}
}

func (h *httpTransport) handleRPC(w http.ResponseWriter, r *http.Request) {
	h.setCORSHeaders(w)

	switch r.Method {
	case http.MethodGet:
		h.handleSSE(w, r)
	case http.MethodPost:
		h.handleJSONRPC(w, r)
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *httpTransport) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	client := make(chan []byte, 16)
	h.subscribe(client)
	defer h.unsubscribe(client)

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(": connected\n\n")); err != nil {
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-client:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", msg); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (h *httpTransport) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeRPCError(w, req.ID, &rpcError{Code: codeParseError, Message: "parse error", Data: err.Error()})
		return
	}
	if req.Method == "" {
		h.writeRPCError(w, req.ID, &rpcError{Code: codeInvalidRequest, Message: "invalid request", Data: "missing method"})
		return
	}

	result, rpcErr := h.server.Dispatch(r.Context(), req.Method, req.Params)
	if rpcErr != nil {
		h.writeRPCError(w, req.ID, rpcErr)
		return
	}

	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: result}
	h.writeRPCResponse(w, resp)
	h.publish(resp)
}

func (h *httpTransport) writeRPCResponse(w http.ResponseWriter, resp rpcResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.server.logError("http_write_response", "error", err)
	}
}

func (h *httpTransport) writeRPCError(w http.ResponseWriter, id interface{}, rpcErr *rpcError) {
	resp := rpcResponse{JSONRPC: "2.0", ID: id, Error: rpcErr}
	h.writeRPCResponse(w, resp)
	h.publish(resp)
}

func (h *httpTransport) setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
}

func (h *httpTransport) subscribe(ch chan []byte) {
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
}

func (h *httpTransport) unsubscribe(ch chan []byte) {
	h.mu.Lock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
	h.mu.Unlock()
}

func (h *httpTransport) publish(resp rpcResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- data:
		default:
		}
	}
}
