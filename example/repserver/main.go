// Command repserver is a ZMTP 3.1 REP endpoint that answers every
// request with a fixed reply. Point any ZeroMQ REQ socket at it.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Zereker/zmtp"
)

func main() {
	configPath := flag.String("config", "", "path to config.toml (optional)")
	flag.Parse()

	cfg := defaultConfig()
	if *configPath != "" {
		loaded, err := loadConfig(*configPath)
		if err != nil {
			slog.Error("failed to load config", "path", *configPath, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	server, err := zmtp.NewServer(cfg.Addr,
		zmtp.ServerShutdownTimeoutOption(cfg.ShutdownTimeout),
	)
	if err != nil {
		slog.Error("failed to create server", "addr", cfg.Addr, "error", err)
		os.Exit(1)
	}

	handler := zmtp.NewSessionHandler(
		zmtp.HandlerOption(func(payload []byte) ([]byte, error) {
			slog.Info("request", "payload", string(payload))
			return cfg.Reply, nil
		}),
		zmtp.LimitsOption(cfg.Limits),
		zmtp.IdleTimeoutOption(cfg.IdleTimeout),
	)

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		slog.Info("shutting down server...")
		cancel()
	}()

	slog.Info("server start", "addr", cfg.Addr)
	if err := server.Serve(ctx, handler); err != nil && ctx.Err() == nil {
		slog.Error("server error", "error", err)
	}
}
