package zmtp

import (
	"bufio"
	"net"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// Client is the REQ side of a REQ/REP pair. It performs the handshake
// on creation and then exchanges one request for one reply per Do call,
// strictly in lockstep as the pattern requires.
type Client struct {
	rawConn net.Conn
	reader  *bufio.Reader
	logger  Logger

	opts   options
	closed atomic.Bool
}

// Dial connects to a ZMTP REP endpoint over TCP and completes the
// handshake before returning.
func Dial(addr string, opt ...Option) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", addr)
	}

	client, err := NewClient(conn, opt...)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return client, nil
}

// NewClient attaches to an already connected transport and completes
// the handshake. The connection is closed on handshake failure.
func NewClient(conn net.Conn, opt ...Option) (*Client, error) {
	var opts options
	for _, o := range opt {
		o(&opts)
	}

	if err := checkClientOptions(&opts); err != nil {
		return nil, err
	}

	c := &Client{
		rawConn: conn,
		reader:  bufio.NewReader(conn),
		logger:  opts.logger,
		opts:    opts,
	}

	if err := c.handshake(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return c, nil
}

// Do sends one request and blocks for the reply. The request is framed
// with the REQ envelope (empty delimiter frame, then the payload) and
// the reply's delimiter frames are stripped before it is returned.
func (c *Client) Do(payload []byte) ([]byte, error) {
	if c.closed.Load() {
		return nil, errors.New("zmtp: client closed")
	}

	buf, err := EncodeEnvelope(payload)
	if err != nil {
		return nil, err
	}

	_ = c.setDeadline()
	if _, err := c.rawConn.Write(buf); err != nil {
		return nil, errors.Wrap(err, "write request")
	}

	reply, err := ReadMessage(c.reader, c.opts.limits)
	if err != nil {
		return nil, errors.Wrap(err, "read reply")
	}

	return reply.Payload(), nil
}

// Close closes the underlying connection. Safe to call multiple times.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.rawConn.Close()
}

// Addr returns the remote address of the connection.
func (c *Client) Addr() net.Addr {
	return c.rawConn.RemoteAddr()
}

func (c *Client) handshake() error {
	_ = c.setDeadline()

	hs := NewHandshake(bufferedConn{c.reader, c.rawConn}, c.opts.socketType, false, c.opts.limits)
	if err := hs.Run(); err != nil {
		return err
	}

	c.logger.Debug("handshake complete", "addr", c.Addr(),
		"peer_version", hs.Peer().Major, "peer_socket_type", hs.PeerSocketType())
	return nil
}

func (c *Client) setDeadline() error {
	return c.rawConn.SetDeadline(time.Now().Add(c.opts.idleTimeout * 2))
}
