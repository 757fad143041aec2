package zmtp

import (
	"bufio"
	"context"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Stats is a snapshot of one session's traffic counters. Counters are
// local to the session; there is no shared state across connections.
type Stats struct {
	Messages uint64
	Frames   uint64
	BytesIn  uint64
	BytesOut uint64
}

type sessionStats struct {
	messages atomic.Uint64
	frames   atomic.Uint64
	bytesIn  atomic.Uint64
	bytesOut atomic.Uint64
}

func (s *sessionStats) snapshot() Stats {
	return Stats{
		Messages: s.messages.Load(),
		Frames:   s.frames.Load(),
		BytesIn:  s.bytesIn.Load(),
		BytesOut: s.bytesOut.Load(),
	}
}

// Session drives one REP-side connection end to end: the ZMTP
// handshake, then the receive/reply cycle until the peer disconnects or
// the context is canceled. All protocol I/O is strictly sequential; the
// exchange is half-duplex, so a reply always completes before the next
// receive begins.
type Session struct {
	rawConn net.Conn
	reader  *bufio.Reader
	logger  Logger

	opts  options
	stats sessionStats

	closed atomic.Bool
	cancel context.CancelFunc
}

// NewSession wraps an accepted connection. The handler option is
// required; the handshake does not start until Run.
func NewSession(conn net.Conn, opt ...Option) (*Session, error) {
	var opts options
	for _, o := range opt {
		o(&opts)
	}

	if err := checkOptions(&opts); err != nil {
		return nil, err
	}

	return &Session{
		rawConn: conn,
		reader:  bufio.NewReader(conn),
		logger:  opts.logger,
		opts:    opts,
	}, nil
}

// Run performs the handshake and then serves receive/reply cycles. It
// blocks until the peer closes the connection, a protocol violation
// occurs, or the context is canceled. A peer closing cleanly between
// cycles is a normal session end and returns nil, as does context
// cancellation; a handshake failure or a close mid-frame returns the
// error. The connection is closed when Run returns.
func (s *Session) Run(ctx context.Context) error {
	s.logger.Info("session established", "addr", s.Addr())

	parent := ctx
	ctx, s.cancel = context.WithCancel(ctx)
	group, child := errgroup.WithContext(ctx)

	// Closing the transport is the only way to unblock a pending read,
	// so cancellation is translated into a close.
	group.Go(func() error {
		<-child.Done()
		s.closeConn()
		return child.Err()
	})

	group.Go(func() error {
		defer s.cancel()
		return s.serve()
	})

	err := group.Wait()
	s.closeConn()

	// Shutdown via the caller's context is a normal session end, not an
	// error, regardless of which loop noticed first.
	if errors.Is(err, context.Canceled) || parent.Err() != nil {
		err = nil
	}

	stats := s.stats.snapshot()
	if err != nil {
		s.logger.Info("session closed with error", "addr", s.Addr(), "error", err,
			"messages", stats.Messages, "bytes_in", stats.BytesIn, "bytes_out", stats.BytesOut)
	} else {
		s.logger.Info("session closed", "addr", s.Addr(),
			"messages", stats.Messages, "bytes_in", stats.BytesIn, "bytes_out", stats.BytesOut)
	}

	return err
}

// Close closes the session. Safe to call multiple times; any blocked
// read or write in Run unblocks with an error.
func (s *Session) Close() error {
	if s.closed.Swap(true) {
		return nil // already closed
	}
	if s.cancel != nil {
		s.cancel()
	}
	return s.rawConn.Close()
}

// IsClosed reports whether the session has been closed.
func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// Addr returns the remote address of the connection.
func (s *Session) Addr() net.Addr {
	return s.rawConn.RemoteAddr()
}

// Stats returns a snapshot of the session's traffic counters.
func (s *Session) Stats() Stats {
	return s.stats.snapshot()
}

// serve runs the handshake and then the sequential receive/reply loop.
func (s *Session) serve() error {
	if err := s.handshake(); err != nil {
		s.logger.Error("handshake failed", "addr", s.Addr(), "error", err)
		return err
	}

	for {
		_ = s.rawConn.SetReadDeadline(time.Now().Add(s.opts.idleTimeout * 2))

		msg, err := ReadMessage(s.reader, s.opts.limits)
		if err != nil {
			if errors.Is(err, io.EOF) {
				// Peer closed between cycles.
				return nil
			}
			return err
		}

		s.stats.messages.Add(1)
		s.stats.frames.Add(uint64(len(msg.Frames)))
		s.stats.bytesIn.Add(uint64(msg.Length()))

		reply, err := s.opts.handler(msg.Payload())
		if err != nil {
			return errors.Wrap(err, "handler")
		}

		if err := s.reply(reply); err != nil {
			return err
		}
	}
}

// handshake runs the greeting and READY exchange as the server side.
func (s *Session) handshake() error {
	_ = s.rawConn.SetReadDeadline(time.Now().Add(s.opts.idleTimeout * 2))

	hs := NewHandshake(bufferedConn{s.reader, s.rawConn}, s.opts.socketType, true, s.opts.limits)
	if err := hs.Run(); err != nil {
		return err
	}

	peer := hs.Peer()
	s.logger.Debug("handshake complete", "addr", s.Addr(),
		"peer_version", peer.Major, "peer_socket_type", hs.PeerSocketType())
	return nil
}

// reply writes the delimiter frame and the payload frame in one write.
func (s *Session) reply(payload []byte) error {
	buf, err := EncodeEnvelope(payload)
	if err != nil {
		return err
	}

	_ = s.rawConn.SetWriteDeadline(time.Now().Add(s.opts.idleTimeout * 2))
	if _, err := s.rawConn.Write(buf); err != nil {
		return errors.Wrap(err, "write reply")
	}

	s.stats.bytesOut.Add(uint64(len(payload)))
	return nil
}

// closeConn marks the session closed and closes the transport.
func (s *Session) closeConn() {
	s.closed.Store(true)
	_ = s.rawConn.Close()
}

// bufferedConn routes reads through the session's buffered reader while
// writing straight to the connection.
type bufferedConn struct {
	io.Reader
	io.Writer
}
