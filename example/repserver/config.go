package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Zereker/zmtp"
)

// repserver config.toml key mapping.
type fileConfig struct {
	Addr            string `toml:"addr"`
	Reply           string `toml:"reply"`
	MaxFrameBytes   uint64 `toml:"max_frame_bytes"`
	MaxFrames       int    `toml:"max_frames"`
	IdleTimeout     string `toml:"idle_timeout"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
}

type serverConfig struct {
	Addr            string
	Reply           []byte
	Limits          zmtp.Limits
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

func defaultConfig() serverConfig {
	return serverConfig{
		Addr:            "127.0.0.1:42123",
		Reply:           []byte("World"),
		Limits:          zmtp.DefaultLimits(),
		IdleTimeout:     30 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}

// loadConfig overlays config.toml values onto the defaults. Keys absent
// from the file keep their default.
func loadConfig(path string) (serverConfig, error) {
	cfg := defaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return serverConfig{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("addr") {
		cfg.Addr = strings.TrimSpace(raw.Addr)
	}
	if meta.IsDefined("reply") {
		cfg.Reply = []byte(raw.Reply)
	}
	if meta.IsDefined("max_frame_bytes") {
		cfg.Limits.MaxFrameBytes = raw.MaxFrameBytes
	}
	if meta.IsDefined("max_frames") {
		cfg.Limits.MaxFrames = raw.MaxFrames
	}
	if meta.IsDefined("idle_timeout") {
		d, err := time.ParseDuration(raw.IdleTimeout)
		if err != nil {
			return serverConfig{}, fmt.Errorf("idle_timeout: %w", err)
		}
		cfg.IdleTimeout = d
	}
	if meta.IsDefined("shutdown_timeout") {
		d, err := time.ParseDuration(raw.ShutdownTimeout)
		if err != nil {
			return serverConfig{}, fmt.Errorf("shutdown_timeout: %w", err)
		}
		cfg.ShutdownTimeout = d
	}

	return cfg, nil
}
