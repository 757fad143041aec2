package zmtp

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"
)

// ConnHandler is implemented by whatever owns the per-connection
// protocol loop. SessionHandler is the stock implementation; tests and
// embedders can provide their own.
type ConnHandler interface {
	// Handle is called on its own goroutine for each accepted
	// connection and owns the connection's lifecycle.
	Handle(ctx context.Context, conn net.Conn)
}

// Server accepts TCP connections and hands each one to a ConnHandler.
// Each session is independent; one failing connection never affects the
// accept loop or other sessions.
type Server struct {
	listener        *net.TCPListener
	logger          Logger
	shutdownTimeout time.Duration

	mu          sync.Mutex
	shutdown    bool
	shutdownNow chan struct{} // bypasses the graceful-shutdown timeout
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// ServerLoggerOption sets the server's logger.
func ServerLoggerOption(logger Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// ServerShutdownTimeoutOption delays listener closure after the serve
// context is canceled, giving in-flight sessions time to finish their
// current exchange. Close bypasses any remaining timeout.
func ServerShutdownTimeoutOption(timeout time.Duration) ServerOption {
	return func(s *Server) {
		s.shutdownTimeout = timeout
	}
}

// NewServer binds a TCP listener on addr.
func NewServer(addr string, opts ...ServerOption) (*Server, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, err
	}

	listener, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		return nil, err
	}

	s := &Server{
		listener:    listener,
		logger:      defaultLogger(),
		shutdownNow: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Serve accepts connections until the context is canceled or an
// unrecoverable listener error occurs. Each connection is handled on
// its own goroutine.
func (s *Server) Serve(ctx context.Context, handler ConnHandler) error {
	s.logger.Info("server started", "addr", s.listener.Addr())

	go func() {
		<-ctx.Done()

		if s.shutdownTimeout > 0 {
			s.logger.Info("graceful shutdown initiated", "timeout", s.shutdownTimeout)
			select {
			case <-time.After(s.shutdownTimeout):
			case <-s.shutdownNow:
			}
		}

		s.mu.Lock()
		s.shutdown = true
		s.mu.Unlock()
		// Deadline in the past unblocks Accept.
		_ = s.listener.SetDeadline(time.Now())
	}()

	for {
		conn, err := s.listener.AcceptTCP()
		if err != nil {
			s.mu.Lock()
			isShutdown := s.shutdown
			s.mu.Unlock()

			if isShutdown {
				s.logger.Info("server stopped", "addr", s.listener.Addr())
				return ctx.Err()
			}

			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			s.logger.Error("accept error", "error", err)
			return err
		}

		s.logger.Debug("accepted connection", "remote_addr", conn.RemoteAddr())
		_ = conn.SetNoDelay(true)
		go handler.Handle(ctx, conn)
	}
}

// Close closes the listener, bypassing any remaining graceful-shutdown
// timeout. Blocked Accept calls return with an error.
func (s *Server) Close() error {
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()

	select {
	case s.shutdownNow <- struct{}{}:
	default:
	}

	return s.listener.Close()
}

// Addr returns the listener's network address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// SessionHandler runs one Session per accepted connection with a shared
// option set. Handshake and protocol failures are logged and end only
// the offending session.
type SessionHandler struct {
	opts   []Option
	logger Logger
}

// NewSessionHandler builds the stock per-connection handler. The
// options are applied to every session; HandlerOption is required.
func NewSessionHandler(opt ...Option) *SessionHandler {
	var opts options
	for _, o := range opt {
		o(&opts)
	}
	logger := opts.logger
	if logger == nil {
		logger = defaultLogger()
	}

	return &SessionHandler{opts: opt, logger: logger}
}

// Handle implements ConnHandler.
func (h *SessionHandler) Handle(ctx context.Context, conn net.Conn) {
	session, err := NewSession(conn, h.opts...)
	if err != nil {
		h.logger.Error("session setup failed", "remote_addr", conn.RemoteAddr(), "error", err)
		_ = conn.Close()
		return
	}

	if err := session.Run(ctx); err != nil {
		h.logger.Debug("session ended", "remote_addr", conn.RemoteAddr(), "error", err)
	}
}
