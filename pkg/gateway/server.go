package gateway

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/cnl-ai/warden/pkg/mcp"
	"github.com/cnl-ai/warden/pkg/safety"
	"github.com/google/uuid"
	"log/slog"
)

// Server accepts agent connections over TCP and runs the JSON-RPC surface
// on each. Every connection is one safety session: when it drops, the
// session's backups, undo slot and pending confirmations are discarded.
type Server struct {
	addr        string
	mcpServer   *mcp.Server
	guard       *safety.Guard
	authorizer  Authorizer
	maxSessions int
	logger      *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	listener net.Listener
}

func NewServer(addr string, mcpServer *mcp.Server, guard *safety.Guard, authorizer Authorizer) *Server {
	if authorizer == nil {
		authorizer = NoopAuthorizer{}
	}
	return &Server{
		addr:       addr,
		mcpServer:  mcpServer,
		guard:      guard,
		authorizer: authorizer,
		sessions:   make(map[string]*Session),
	}
}

func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

func (s *Server) SetMaxSessions(max int) {
	s.maxSessions = max
}

func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	defer listener.Close()

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	s.logInfo("gateway_listening", "addr", listener.Addr().String())

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			s.logError("accept_failed", "error", err)
			return err
		}

		if s.maxSessions > 0 && s.sessionCount() >= s.maxSessions {
			s.logWarn("session_limit_reached", "remote", conn.RemoteAddr().String(), "limit", s.maxSessions)
			_ = conn.Close()
			continue
		}

		if err := s.authorizer.Allow(ctx, conn.RemoteAddr().String()); err != nil {
			s.logWarn("session_denied", "remote", conn.RemoteAddr().String(), "error", err)
			_ = conn.Close()
			continue
		}

		session := &Session{
			ID:         uuid.NewString(),
			RemoteAddr: conn.RemoteAddr().String(),
			StartedAt:  time.Now(),
		}
		s.register(session)

		go s.serveConn(ctx, conn, session)
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn, session *Session) {
	defer s.closeSession(session)
	defer conn.Close()

	s.logInfo("session_start", "id", session.ID, "remote", session.RemoteAddr)

	// Announce the session ID so the client can scope its calls to it.
	if err := mcp.WriteNotification(conn, "warden.session.start", map[string]string{"session_id": session.ID}); err != nil {
		s.logWarn("session_announce_failed", "id", session.ID, "error", err)
		return
	}

	_ = s.mcpServer.Serve(ctx, conn, conn)
}

// closeSession tears down everything the session accumulated. A dropped
// connection must not leave confirmable requests behind.
func (s *Server) closeSession(session *Session) {
	s.unregister(session.ID)
	if s.guard != nil {
		s.guard.EndSession(session.ID)
	}
	s.logInfo("session_end", "id", session.ID, "remote", session.RemoteAddr)
}

func (s *Server) register(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
}

func (s *Server) unregister(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *Server) sessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) ListSessions() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session)
	}
	return out
}

// Addr reports the bound listener address once Start has opened it, or the
// configured address before that.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

func (s *Server) String() string {
	return fmt.Sprintf("gateway(%s)", s.addr)
}

func (s *Server) logInfo(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
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
