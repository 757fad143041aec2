package zmtp

import (
	"log/slog"
	"testing"
	"time"
)

func TestHandlerOption(t *testing.T) {
	handler := func(payload []byte) ([]byte, error) { return payload, nil }
	opt := HandlerOption(handler)

	var opts options
	opt(&opts)

	if opts.handler == nil {
		t.Error("handler not set")
	}
}

func TestSocketTypeOption(t *testing.T) {
	opt := SocketTypeOption("DEALER")

	var opts options
	opt(&opts)

	if opts.socketType != "DEALER" {
		t.Errorf("socketType = %q, want DEALER", opts.socketType)
	}
}

func TestLimitsOption(t *testing.T) {
	limits := Limits{MaxFrameBytes: 2048, MaxFrames: 8}
	opt := LimitsOption(limits)

	var opts options
	opt(&opts)

	if opts.limits != limits {
		t.Errorf("limits = %+v, want %+v", opts.limits, limits)
	}
}

func TestMaxFrameBytesOption(t *testing.T) {
	opt := MaxFrameBytesOption(4096)

	var opts options
	opt(&opts)

	if opts.limits.MaxFrameBytes != 4096 {
		t.Errorf("MaxFrameBytes = %d, want 4096", opts.limits.MaxFrameBytes)
	}
}

func TestIdleTimeoutOption(t *testing.T) {
	opt := IdleTimeoutOption(time.Minute)

	var opts options
	opt(&opts)

	if opts.idleTimeout != time.Minute {
		t.Errorf("idleTimeout = %v, want %v", opts.idleTimeout, time.Minute)
	}
}

func TestCheckOptions_DefaultValues(t *testing.T) {
	opts := &options{
		handler: func(payload []byte) ([]byte, error) { return nil, nil },
	}

	if err := checkOptions(opts); err != nil {
		t.Fatalf("checkOptions failed: %v", err)
	}

	if opts.socketType != "REP" {
		t.Errorf("socketType = %q, want REP", opts.socketType)
	}
	if opts.limits != DefaultLimits() {
		t.Errorf("limits = %+v, want defaults", opts.limits)
	}
	if opts.idleTimeout != defaultIdleTimeout {
		t.Errorf("idleTimeout = %v, want %v", opts.idleTimeout, defaultIdleTimeout)
	}
	if opts.logger == nil {
		t.Error("logger should have default value")
	}
}

func TestCheckOptions_PartialLimits(t *testing.T) {
	opts := &options{
		handler: func(payload []byte) ([]byte, error) { return nil, nil },
		limits:  Limits{MaxFrames: 8},
	}

	if err := checkOptions(opts); err != nil {
		t.Fatalf("checkOptions failed: %v", err)
	}

	if opts.limits.MaxFrames != 8 {
		t.Errorf("MaxFrames = %d, want 8", opts.limits.MaxFrames)
	}
	if opts.limits.MaxFrameBytes != DefaultLimits().MaxFrameBytes {
		t.Errorf("MaxFrameBytes = %d, want default", opts.limits.MaxFrameBytes)
	}
}

func TestCheckOptions_MissingHandler(t *testing.T) {
	if err := checkOptions(&options{}); err != ErrInvalidHandler {
		t.Errorf("expected ErrInvalidHandler, got %v", err)
	}
}

func TestCheckOptions_InvalidSocketType(t *testing.T) {
	opts := &options{
		handler:    func(payload []byte) ([]byte, error) { return nil, nil },
		socketType: "R\x01P",
	}

	if err := checkOptions(opts); err != ErrInvalidSocketType {
		t.Errorf("expected ErrInvalidSocketType, got %v", err)
	}
}

func TestCheckClientOptions_Defaults(t *testing.T) {
	opts := &options{}

	if err := checkClientOptions(opts); err != nil {
		t.Fatalf("checkClientOptions failed: %v", err)
	}

	if opts.socketType != "REQ" {
		t.Errorf("socketType = %q, want REQ", opts.socketType)
	}
	if opts.logger == nil {
		t.Error("logger should have default value")
	}
}

func TestLogger_Interface(t *testing.T) {
	// Verify that *slog.Logger implements our Logger interface
	var _ Logger = slog.Default()
}

// mockLogger records calls for assertions on logging behavior.
type mockLogger struct {
	debugCalled bool
	infoCalled  bool
	warnCalled  bool
	errorCalled bool
	lastMsg     string
}

func (l *mockLogger) Debug(msg string, args ...any) { l.debugCalled = true; l.lastMsg = msg }
func (l *mockLogger) Info(msg string, args ...any)  { l.infoCalled = true; l.lastMsg = msg }
func (l *mockLogger) Warn(msg string, args ...any)  { l.warnCalled = true; l.lastMsg = msg }
func (l *mockLogger) Error(msg string, args ...any) { l.errorCalled = true; l.lastMsg = msg }

func TestLoggerOption(t *testing.T) {
	logger := &mockLogger{}
	opt := LoggerOption(logger)

	var opts options
	opt(&opts)

	if opts.logger != logger {
		t.Error("logger not set correctly")
	}

	opts.logger.Info("test info")
	if !logger.infoCalled || logger.lastMsg != "test info" {
		t.Error("custom logger not invoked")
	}
}
