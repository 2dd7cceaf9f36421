package main

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/notnil/canfly"
)

type config struct {
	NodeID         uint8
	BoardType      uint8
	Serial         uint32
	StatusInterval time.Duration
	LogLevel       slog.Level
	Catalog        string
	Capture        string
	HTTPAddr       string
}

func defaultConfig() config {
	return config{
		StatusInterval: time.Second,
		LogLevel:       slog.LevelInfo,
	}
}

type fileConfig struct {
	NodeID         int64  `toml:"node_id"`
	BoardType      int64  `toml:"board_type"`
	Serial         int64  `toml:"serial"`
	StatusInterval string `toml:"status_interval"`
	LogLevel       string `toml:"log_level"`
	Catalog        string `toml:"catalog"`
	Capture        string `toml:"capture"`
	HTTPAddr       string `toml:"http_addr"`
}

// loadConfig reads path over the defaults. Relative catalog and capture paths
// are resolved against the directory holding the config file.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config{}, fmt.Errorf("load canflyctl config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return config{}, fmt.Errorf("load canflyctl config: unknown key %s", undecoded[0])
	}
	dir := filepath.Dir(path)

	if meta.IsDefined("node_id") {
		if raw.NodeID < 0 || raw.NodeID > canfly.MaxStatusNode {
			return config{}, fmt.Errorf("node_id %d outside 0..%d", raw.NodeID, canfly.MaxStatusNode)
		}
		cfg.NodeID = uint8(raw.NodeID)
	}

	if meta.IsDefined("board_type") {
		if raw.BoardType < 0 || raw.BoardType > 0xFF {
			return config{}, fmt.Errorf("board_type %d does not fit a byte", raw.BoardType)
		}
		cfg.BoardType = uint8(raw.BoardType)
	}

	if meta.IsDefined("serial") {
		if raw.Serial < 0 || raw.Serial > 0xFFFFFFFF {
			return config{}, fmt.Errorf("serial %d does not fit 32 bits", raw.Serial)
		}
		cfg.Serial = uint32(raw.Serial)
	}

	if meta.IsDefined("status_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.StatusInterval))
		if err != nil {
			return config{}, fmt.Errorf("parse status_interval: %w", err)
		}
		if d <= 0 {
			return config{}, fmt.Errorf("status_interval must be positive, got %s", d)
		}
		cfg.StatusInterval = d
	}

	if meta.IsDefined("log_level") {
		lvl, err := parseLevel(raw.LogLevel)
		if err != nil {
			return config{}, err
		}
		cfg.LogLevel = lvl
	}

	if meta.IsDefined("catalog") {
		cfg.Catalog = resolvePath(dir, raw.Catalog)
	}

	if meta.IsDefined("capture") {
		cfg.Capture = resolvePath(dir, raw.Capture)
	}

	if meta.IsDefined("http_addr") {
		cfg.HTTPAddr = strings.TrimSpace(raw.HTTPAddr)
	}

	return cfg, nil
}

func resolvePath(dir, p string) string {
	p = strings.TrimSpace(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

func parseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log_level %q (supported: debug, info, warn, error)", raw)
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
