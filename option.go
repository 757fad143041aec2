package zmtp

import (
	"errors"
	"log/slog"
	"time"
)

// ErrInvalidHandler is returned when a session is created without an
// application handler.
var ErrInvalidHandler = errors.New("zmtp: invalid handler callback")

// ErrInvalidSocketType is returned when an empty or non-ASCII socket
// type is configured.
var ErrInvalidSocketType = errors.New("zmtp: invalid socket type")

// Handler is the application boundary: it receives one fully assembled
// request payload (envelope delimiters already stripped) and returns
// the reply payload.
type Handler func(payload []byte) ([]byte, error)

// Logger is the interface for structured logging, compatible with
// *slog.Logger. Applications can inject their own implementation.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// defaultLogger returns the default slog logger.
func defaultLogger() Logger {
	return slog.Default()
}

// Default configuration values.
const (
	// defaultSocketType is what a Session announces in its READY
	// command.
	defaultSocketType = "REP"
	// defaultIdleTimeout bounds how long a session waits for peer
	// traffic before the connection deadline fires.
	defaultIdleTimeout = 30 * time.Second
)

// options holds the configuration for a session or client.
type options struct {
	handler Handler
	logger  Logger

	socketType  string
	limits      Limits
	idleTimeout time.Duration
}

// Option configures a Session or Client.
type Option func(*options)

// HandlerOption sets the application handler. Required for sessions.
func HandlerOption(handler Handler) Option {
	return func(o *options) {
		o.handler = handler
	}
}

// SocketTypeOption overrides the announced socket type. Sessions
// default to REP, clients to REQ; other types skip the REQ/REP pairing
// check during the handshake.
func SocketTypeOption(socketType string) Option {
	return func(o *options) {
		o.socketType = socketType
	}
}

// LoggerOption sets the logger. Defaults to slog.Default().
func LoggerOption(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// LimitsOption sets the frame size and frame count bounds applied while
// decoding peer traffic. Fields left zero fall back to DefaultLimits.
func LimitsOption(limits Limits) Option {
	return func(o *options) {
		o.limits = limits
	}
}

// MaxFrameBytesOption caps a single frame's payload size. Shorthand for
// adjusting only that field of Limits.
func MaxFrameBytesOption(n uint64) Option {
	return func(o *options) {
		o.limits.MaxFrameBytes = n
	}
}

// IdleTimeoutOption sets how long the session may sit idle before the
// read/write deadlines fire. Zero keeps the default.
func IdleTimeoutOption(timeout time.Duration) Option {
	return func(o *options) {
		o.idleTimeout = timeout
	}
}

// checkOptions validates and fills in defaults for a server-side
// session, which must have a handler.
func checkOptions(opts *options) error {
	if opts.handler == nil {
		return ErrInvalidHandler
	}
	if opts.socketType == "" {
		opts.socketType = defaultSocketType
	}
	return checkCommonOptions(opts)
}

// checkClientOptions validates and fills in defaults for a client,
// which has no inbound handler.
func checkClientOptions(opts *options) error {
	if opts.socketType == "" {
		opts.socketType = "REQ"
	}
	return checkCommonOptions(opts)
}

func checkCommonOptions(opts *options) error {
	if !isASCIIName(opts.socketType) {
		return ErrInvalidSocketType
	}

	defaults := DefaultLimits()
	if opts.limits.MaxFrameBytes == 0 {
		opts.limits.MaxFrameBytes = defaults.MaxFrameBytes
	}
	if opts.limits.MaxFrames == 0 {
		opts.limits.MaxFrames = defaults.MaxFrames
	}

	if opts.idleTimeout <= 0 {
		opts.idleTimeout = defaultIdleTimeout
	}

	if opts.logger == nil {
		opts.logger = defaultLogger()
	}

	return nil
}
