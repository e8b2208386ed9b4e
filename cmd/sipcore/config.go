package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ghettovoice/sipcore/internal/log"
	"github.com/ghettovoice/sipcore/sip"
)

const (
	modeStateless = "stateless"
	modeStateful  = "stateful"

	logFormatConsole = "console"
	logFormatDev     = "dev"
)

type listenConfig struct {
	Network string `toml:"network"`
	Addr    string `toml:"addr"`
}

type fileConfig struct {
	Mode              string         `toml:"mode"`
	LogFormat         string         `toml:"log_format"`
	LogLevel          string         `toml:"log_level"`
	Listen            []listenConfig `toml:"listen"`
	TCPReadTimeout    string         `toml:"tcp_read_timeout"`
	TCPReadLimit      int            `toml:"tcp_read_limit"`
	TransactionLinger string         `toml:"transaction_linger"`
}

type config struct {
	Mode              string
	LogFormat         string
	LogLevel          slog.Level
	Listen            []listenConfig
	TCPReadTimeout    time.Duration
	TCPReadLimit      int
	TransactionLinger time.Duration
}

func defaultConfig() config {
	return config{
		Mode:              modeStateful,
		LogFormat:         logFormatConsole,
		LogLevel:          slog.LevelInfo,
		Listen:            []listenConfig{{Network: "udp", Addr: "0.0.0.0:5060"}},
		TCPReadTimeout:    sip.DefaultReadTimeout,
		TCPReadLimit:      sip.DefaultReadLimit,
		TransactionLinger: sip.DefaultTransactionLinger,
	}
}

// loadConfig reads the TOML file at path over the defaults.
// An empty path yields the defaults.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("mode") {
		cfg.Mode = strings.ToLower(strings.TrimSpace(raw.Mode))
	}
	if meta.IsDefined("log_format") {
		cfg.LogFormat = strings.ToLower(strings.TrimSpace(raw.LogFormat))
	}
	if meta.IsDefined("log_level") {
		lvl, err := log.ParseLevel(raw.LogLevel)
		if err != nil {
			return config{}, fmt.Errorf("parse log_level: %w", err)
		}
		cfg.LogLevel = lvl
	}
	if meta.IsDefined("listen") {
		cfg.Listen = normalizeListen(raw.Listen)
	}
	if meta.IsDefined("tcp_read_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.TCPReadTimeout))
		if err != nil {
			return config{}, fmt.Errorf("parse tcp_read_timeout: %w", err)
		}
		cfg.TCPReadTimeout = d
	}
	if meta.IsDefined("tcp_read_limit") {
		cfg.TCPReadLimit = raw.TCPReadLimit
	}
	if meta.IsDefined("transaction_linger") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.TransactionLinger))
		if err != nil {
			return config{}, fmt.Errorf("parse transaction_linger: %w", err)
		}
		cfg.TransactionLinger = d
	}

	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func (cfg config) validate() error {
	switch cfg.Mode {
	case modeStateless, modeStateful:
	default:
		return fmt.Errorf("unexpected mode %q", cfg.Mode)
	}
	switch cfg.LogFormat {
	case logFormatConsole, logFormatDev:
	default:
		return fmt.Errorf("unexpected log_format %q", cfg.LogFormat)
	}
	if len(cfg.Listen) == 0 {
		return fmt.Errorf("no listen addresses")
	}
	for _, l := range cfg.Listen {
		switch l.Network {
		case "udp", "tcp", "ws":
		default:
			return fmt.Errorf("unexpected listen network %q", l.Network)
		}
		if l.Addr == "" {
			return fmt.Errorf("empty %s listen address", l.Network)
		}
	}
	if cfg.TCPReadTimeout <= 0 {
		return fmt.Errorf("tcp_read_timeout must be positive, got %v", cfg.TCPReadTimeout)
	}
	if cfg.TCPReadLimit <= 0 {
		return fmt.Errorf("tcp_read_limit must be positive, got %d", cfg.TCPReadLimit)
	}
	return nil
}

func (cfg config) logger() *slog.Logger {
	if cfg.LogFormat == logFormatDev {
		return log.NewDev(cfg.LogLevel)
	}
	return log.NewConsole(cfg.LogLevel)
}

func normalizeListen(in []listenConfig) []listenConfig {
	out := make([]listenConfig, 0, len(in))
	for _, l := range in {
		l.Network = strings.ToLower(strings.TrimSpace(l.Network))
		l.Addr = strings.TrimSpace(l.Addr)
		if l.Network == "" && l.Addr == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}
