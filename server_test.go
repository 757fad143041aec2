package zmtp

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"
)

// mockConnHandler implements ConnHandler for testing
type mockConnHandler struct {
	mu       sync.Mutex
	conns    []net.Conn
	handleCh chan net.Conn
}

func newMockConnHandler() *mockConnHandler {
	return &mockConnHandler{
		conns:    make([]net.Conn, 0),
		handleCh: make(chan net.Conn, 10),
	}
}

func (h *mockConnHandler) Handle(ctx context.Context, conn net.Conn) {
	h.mu.Lock()
	h.conns = append(h.conns, conn)
	h.mu.Unlock()

	select {
	case h.handleCh <- conn:
	default:
	}
}

func TestNewServer(t *testing.T) {
	server, err := NewServer("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	defer server.Close()

	if server.listener == nil {
		t.Error("listener is nil")
	}
}

func TestNewServer_OccupiedPort(t *testing.T) {
	server1, err := NewServer("127.0.0.1:0")
	if err != nil {
		t.Fatalf("first NewServer failed: %v", err)
	}
	defer server1.Close()

	_, err = NewServer(server1.Addr().String())
	if err == nil {
		t.Error("expected error for occupied port")
	}
}

func TestServer_Close(t *testing.T) {
	server, err := NewServer("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}

	if err := server.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}

	// Verify the listener is closed
	if _, err := server.listener.AcceptTCP(); err == nil {
		t.Error("expected error after close")
	}
}

func TestServer_Serve(t *testing.T) {
	server, err := NewServer("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}

	handler := newMockConnHandler()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- server.Serve(ctx, handler)
	}()

	conn, err := net.Dial("tcp", server.Addr().String())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	select {
	case <-handler.handleCh:
	case <-time.After(5 * time.Second):
		t.Fatal("handler was not invoked")
	}

	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not stop after cancel")
	}
}

func TestServer_SessionLoopback(t *testing.T) {
	server, err := NewServer("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}

	handler := NewSessionHandler(
		HandlerOption(func(payload []byte) ([]byte, error) {
			return []byte("World"), nil
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = server.Serve(ctx, handler)
	}()

	client, err := Dial(server.Addr().String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer client.Close()

	// The REQ/REP cycle is repeatable on one connection.
	for i := 0; i < 3; i++ {
		reply, err := client.Do([]byte("Hello ZeroMQ"))
		if err != nil {
			t.Fatalf("Do failed on cycle %d: %v", i, err)
		}
		if string(reply) != "World" {
			t.Errorf("reply = %q, want %q", reply, "World")
		}
	}
}

func TestServer_ConcurrentSessions(t *testing.T) {
	server, err := NewServer("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}

	handler := NewSessionHandler(HandlerOption(echoHandler))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = server.Serve(ctx, handler)
	}()

	var group sync.WaitGroup
	for i := 0; i < 4; i++ {
		group.Add(1)
		go func(id byte) {
			defer group.Done()

			client, err := Dial(server.Addr().String())
			if err != nil {
				t.Errorf("Dial failed: %v", err)
				return
			}
			defer client.Close()

			payload := []byte{'p', 'e', 'e', 'r', id}
			reply, err := client.Do(payload)
			if err != nil {
				t.Errorf("Do failed: %v", err)
				return
			}
			if string(reply) != string(payload) {
				t.Errorf("reply = %q, want %q", reply, payload)
			}
		}(byte('0' + i))
	}
	group.Wait()
}
