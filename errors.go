package zmtp

import "errors"

// Errors surfaced by the greeting codec.
var (
	// ErrInvalidSignature is returned when the greeting signature bytes
	// are wrong. The stream cannot be a ZMTP peer.
	ErrInvalidSignature = errors.New("zmtp: invalid greeting signature")
	// ErrUnsupportedVersion is returned when the peer's major version is
	// below the minimum this implementation speaks.
	ErrUnsupportedVersion = errors.New("zmtp: unsupported protocol version")
	// ErrInvalidMechanism is returned when a mechanism name is too long,
	// contains non-ASCII bytes, or is padded incorrectly.
	ErrInvalidMechanism = errors.New("zmtp: invalid mechanism name")
	// ErrUnsupportedMechanism is returned when the peer requests a
	// mechanism other than NULL.
	ErrUnsupportedMechanism = errors.New("zmtp: unsupported mechanism")
)

// Errors surfaced by the frame codec.
var (
	// ErrLengthRequiresLongForm is returned when encoding a short-form
	// frame whose payload does not fit a one-byte length.
	ErrLengthRequiresLongForm = errors.New("zmtp: frame length requires long form")
	// ErrInvalidFlags is returned when a frame header sets reserved flag
	// bits. ZMTP requires them to be zero.
	ErrInvalidFlags = errors.New("zmtp: reserved flag bits set")
	// ErrFrameTooLarge is returned when a frame's declared length
	// exceeds the configured limit.
	ErrFrameTooLarge = errors.New("zmtp: frame exceeds size limit")
	// ErrTruncatedHeader is returned when the stream ends inside a frame
	// header.
	ErrTruncatedHeader = errors.New("zmtp: truncated frame header")
	// ErrIncompleteStream is returned when the stream ends inside a
	// frame payload or otherwise mid-message.
	ErrIncompleteStream = errors.New("zmtp: stream closed mid-frame")
)

// Errors surfaced by the command codec and handshake.
var (
	// ErrNotACommand is returned when a command is parsed from a frame
	// without the COMMAND flag.
	ErrNotACommand = errors.New("zmtp: frame is not a command")
	// ErrMalformedCommand is returned when a command payload has a
	// length prefix overrunning the remaining bytes, or is otherwise
	// truncated.
	ErrMalformedCommand = errors.New("zmtp: malformed command")
	// ErrDuplicateProperty is returned when a command carries the same
	// property name twice.
	ErrDuplicateProperty = errors.New("zmtp: duplicate command property")
	// ErrUnexpectedCommand is returned when the handshake receives a
	// command other than READY.
	ErrUnexpectedCommand = errors.New("zmtp: unexpected command")
	// ErrIncompatibleSocketType is returned when the peer's Socket-Type
	// cannot pair with ours (a REP endpoint only talks to REQ).
	ErrIncompatibleSocketType = errors.New("zmtp: incompatible peer socket type")
)

// ErrTooManyFrames is returned when a single message exceeds the
// configured frame count limit.
var ErrTooManyFrames = errors.New("zmtp: too many frames in message")

// protocolViolations are fatal to the connection: once framing is
// untrustworthy the stream cannot be resynchronized.
var protocolViolations = []error{
	ErrInvalidSignature,
	ErrUnsupportedVersion,
	ErrInvalidMechanism,
	ErrUnsupportedMechanism,
	ErrInvalidFlags,
	ErrFrameTooLarge,
	ErrNotACommand,
	ErrMalformedCommand,
	ErrDuplicateProperty,
	ErrUnexpectedCommand,
	ErrIncompatibleSocketType,
	ErrTooManyFrames,
}

// IsProtocolViolation reports whether err is a fatal protocol error, as
// opposed to a transport closure (ErrTruncatedHeader,
// ErrIncompleteStream, or a plain connection error). Protocol
// violations are never retried; the connection must be dropped.
func IsProtocolViolation(err error) bool {
	for _, violation := range protocolViolations {
		if errors.Is(err, violation) {
			return true
		}
	}
	return false
}
