package zmtp

import (
	"io"

	"github.com/pkg/errors"
)

// handshakeState enumerates the handshake's strictly sequential steps.
type handshakeState int

const (
	stateStart handshakeState = iota
	stateGreetingSent
	stateGreetingReceived
	stateReadySent
	stateReady
	stateFailed
)

// compatiblePeer maps a socket type to the peer type it pairs with.
// Only the REQ/REP pattern is implemented.
var compatiblePeer = map[string]string{
	"REQ": "REP",
	"REP": "REQ",
}

// Handshake drives the greeting and READY exchange for the NULL
// mechanism over an abstract byte stream. The exchange is a fixed,
// non-negotiable two-step sequence; any mismatch means an incompatible
// peer and the connection is abandoned, since continuing with a misread
// greeting would desynchronize every subsequent frame boundary.
//
// The state advances one step per Step call, so a caller may either
// block through Run or drive the steps itself from an event loop.
type Handshake struct {
	rw     io.ReadWriter
	limits Limits

	state      handshakeState
	socketType string
	asServer   bool

	peer         Greeting
	peerSocketID string
}

// NewHandshake prepares a handshake for one connection. socketType is
// announced in the READY command; asServer sets the greeting flag.
func NewHandshake(rw io.ReadWriter, socketType string, asServer bool, limits Limits) *Handshake {
	return &Handshake{
		rw:         rw,
		limits:     limits,
		socketType: socketType,
		asServer:   asServer,
	}
}

// Run advances the handshake to completion, blocking on reads and
// writes as needed. Any failure is fatal: the state is left failed and
// the caller must drop the connection.
func (h *Handshake) Run() error {
	for h.state != stateReady {
		if err := h.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Step performs the next handshake exchange: send greeting, receive
// greeting, send READY, receive READY. Returns nil once the handshake
// is complete.
func (h *Handshake) Step() error {
	var err error

	switch h.state {
	case stateStart:
		err = h.sendGreeting()
	case stateGreetingSent:
		err = h.receiveGreeting()
	case stateGreetingReceived:
		err = h.sendReady()
	case stateReadySent:
		err = h.receiveReady()
	case stateReady:
		return nil
	case stateFailed:
		return errors.New("zmtp: handshake already failed")
	}

	if err != nil {
		h.state = stateFailed
		return err
	}
	return nil
}

// Done reports whether the handshake has completed successfully.
func (h *Handshake) Done() bool {
	return h.state == stateReady
}

// Peer returns the peer's greeting. Valid once the greeting exchange
// has completed.
func (h *Handshake) Peer() Greeting {
	return h.peer
}

// PeerSocketType returns the Socket-Type the peer announced in its
// READY command. Valid once the handshake is done.
func (h *Handshake) PeerSocketType() string {
	return h.peerSocketID
}

func (h *Handshake) sendGreeting() error {
	buf, err := NewGreeting(h.asServer).Encode()
	if err != nil {
		return err
	}
	if _, err := h.rw.Write(buf); err != nil {
		return errors.Wrap(err, "send greeting")
	}

	h.state = stateGreetingSent
	return nil
}

func (h *Handshake) receiveGreeting() error {
	peer, err := readGreeting(h.rw)
	if err != nil {
		return err
	}
	if peer.Mechanism != MechanismNull {
		return errors.Wrapf(ErrUnsupportedMechanism, "peer wants %q", peer.Mechanism)
	}

	h.peer = peer
	h.state = stateGreetingReceived
	return nil
}

func (h *Handshake) sendReady() error {
	frame, err := NewReadyFrame(h.socketType)
	if err != nil {
		return err
	}
	buf, err := frame.Encode()
	if err != nil {
		return err
	}
	if _, err := h.rw.Write(buf); err != nil {
		return errors.Wrap(err, "send READY")
	}

	h.state = stateReadySent
	return nil
}

func (h *Handshake) receiveReady() error {
	frame, err := ReadFrame(h.rw, h.limits)
	if err != nil {
		if err == io.EOF {
			return errors.Wrap(ErrIncompleteStream, "stream closed before READY")
		}
		return err
	}

	cmd, err := ParseCommand(frame)
	if err != nil {
		return err
	}
	if err := requireReady(cmd); err != nil {
		return err
	}

	value, ok := cmd.Property(propertySocketType)
	if !ok {
		return errors.Wrapf(ErrMalformedCommand, "READY lacks %s", propertySocketType)
	}
	peerType := string(value)

	if want, known := compatiblePeer[h.socketType]; known && peerType != want {
		return errors.Wrapf(ErrIncompatibleSocketType, "%s cannot pair with %s", h.socketType, peerType)
	}

	h.peerSocketID = peerType
	h.state = stateReady
	return nil
}
