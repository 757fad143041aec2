package zmtp

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Frame flag bits. All other bits are reserved and must be zero.
const (
	flagMore    byte = 0x01
	flagLong    byte = 0x02
	flagCommand byte = 0x04

	flagsReserved byte = ^(flagMore | flagLong | flagCommand)

	// maxShortLength is the largest payload a short-form header can
	// describe.
	maxShortLength = 255

	shortHeaderSize = 2
	// longHeaderSize is the flags octet plus the 8-octet length.
	longHeaderSize = 9
)

// Frame is one wire frame: a flags byte, a short or long length field,
// and the payload.
type Frame struct {
	// More marks the frame as a non-final part of a message.
	More bool
	// Long selects the 8-byte length form. Decoders accept long form
	// for any length; encoders must set it when the payload exceeds
	// 255 bytes.
	Long bool
	// Command marks the frame as protocol control data.
	Command bool

	Payload []byte
}

// NewFrame builds a data frame, choosing the long length form
// automatically when the payload does not fit a one-byte length.
func NewFrame(payload []byte, more bool) Frame {
	return Frame{
		More:    more,
		Long:    len(payload) > maxShortLength,
		Payload: payload,
	}
}

// NewCommandFrame builds a command frame. Command frames never set
// MORE; a command is always a single frame.
func NewCommandFrame(payload []byte) Frame {
	return Frame{
		Command: true,
		Long:    len(payload) > maxShortLength,
		Payload: payload,
	}
}

// Limits bounds frame and message decoding memory use. The wire format
// itself is unbounded, so decoding without limits would let a peer
// force arbitrary allocations.
type Limits struct {
	// MaxFrameBytes caps a single frame's payload length.
	MaxFrameBytes uint64
	// MaxFrames caps the number of frames in one message.
	MaxFrames int
}

// DefaultLimits allows 1 MiB frames and 1024 frames per message.
func DefaultLimits() Limits {
	return Limits{
		MaxFrameBytes: 1024 * 1024,
		MaxFrames:     1024,
	}
}

// Encode serializes the frame header and payload. Fails with
// ErrLengthRequiresLongForm when a short-form frame carries more than
// 255 payload bytes; use NewFrame to pick the form automatically.
func (f Frame) Encode() ([]byte, error) {
	size := len(f.Payload)
	if !f.Long && size > maxShortLength {
		return nil, errors.Wrapf(ErrLengthRequiresLongForm, "payload is %d bytes", size)
	}

	flags := byte(0)
	if f.More {
		flags |= flagMore
	}
	if f.Long {
		flags |= flagLong
	}
	if f.Command {
		flags |= flagCommand
	}

	if f.Long {
		buf := make([]byte, longHeaderSize+size)
		buf[0] = flags
		binary.BigEndian.PutUint64(buf[1:longHeaderSize], uint64(size))
		copy(buf[longHeaderSize:], f.Payload)
		return buf, nil
	}

	buf := make([]byte, shortHeaderSize+size)
	buf[0] = flags
	buf[1] = byte(size)
	copy(buf[shortHeaderSize:], f.Payload)
	return buf, nil
}

// ReadFrame blocks until one complete frame has been read from r. A
// stream that ends cleanly before the first header byte returns io.EOF;
// a stream that ends inside the header or payload returns
// ErrTruncatedHeader or ErrIncompleteStream respectively.
func ReadFrame(r io.Reader, limits Limits) (Frame, error) {
	flags, length, err := readFrameHeader(r)
	if err != nil {
		return Frame{}, err
	}

	if limits.MaxFrameBytes > 0 && length > limits.MaxFrameBytes {
		return Frame{}, errors.Wrapf(ErrFrameTooLarge, "%d bytes, limit %d", length, limits.MaxFrameBytes)
	}

	f := Frame{
		More:    flags&flagMore != 0,
		Long:    flags&flagLong != 0,
		Command: flags&flagCommand != 0,
		Payload: make([]byte, length),
	}

	if length > 0 {
		if _, err := io.ReadFull(r, f.Payload); err != nil {
			return Frame{}, errors.Wrapf(ErrIncompleteStream, "read frame payload: %v", err)
		}
	}

	return f, nil
}

// readFrameHeader reads the flags byte and the short or long length
// field. io.EOF before the first byte is passed through untouched so
// callers can tell a clean close from a truncated frame.
func readFrameHeader(r io.Reader) (byte, uint64, error) {
	var head [1]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		if err == io.EOF {
			return 0, 0, io.EOF
		}
		return 0, 0, errors.Wrapf(ErrTruncatedHeader, "read flags: %v", err)
	}

	flags := head[0]
	if flags&flagsReserved != 0 {
		return 0, 0, errors.Wrapf(ErrInvalidFlags, "flags 0x%02X", flags)
	}

	if flags&flagLong != 0 {
		var size [8]byte
		if _, err := io.ReadFull(r, size[:]); err != nil {
			return 0, 0, errors.Wrapf(ErrTruncatedHeader, "read long length: %v", err)
		}
		return flags, binary.BigEndian.Uint64(size[:]), nil
	}

	var size [1]byte
	if _, err := io.ReadFull(r, size[:]); err != nil {
		return 0, 0, errors.Wrapf(ErrTruncatedHeader, "read short length: %v", err)
	}
	return flags, uint64(size[0]), nil
}
