package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/notifyctl/internal/eventclient"
	"github.com/danmuck/notifyctl/internal/protocol/frame"
)

type fileConfig struct {
	Host       string `toml:"host"`
	Port       int    `toml:"port"`
	Timeout    string `toml:"timeout"`
	TimeoutMS  int64  `toml:"timeout_ms"`
	MaxPayload int    `toml:"max_payload"`
	DeviceName string `toml:"device_name"`
	IconDir    string `toml:"icon_dir"`
}

// clientConfig is the resolved CLI view: the default host plus client settings.
type clientConfig struct {
	Host   string
	Client eventclient.Config
}

func defaultClientConfig() clientConfig {
	return clientConfig{
		Host:   "localhost",
		Client: eventclient.DefaultConfig(),
	}
}

func loadClientConfig(path string) (clientConfig, error) {
	cfg := defaultClientConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return clientConfig{}, fmt.Errorf("load notifyctl config: %w", err)
	}

	if meta.IsDefined("host") {
		if host := strings.TrimSpace(raw.Host); host != "" {
			cfg.Host = host
		}
	}

	if meta.IsDefined("port") {
		if raw.Port <= 0 || raw.Port > 0xffff {
			return clientConfig{}, fmt.Errorf("port out of range: %d", raw.Port)
		}
		cfg.Client.Port = raw.Port
	}

	if meta.IsDefined("timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timeout))
		if err != nil {
			return clientConfig{}, fmt.Errorf("parse timeout: %w", err)
		}
		if d < 0 {
			return clientConfig{}, fmt.Errorf("timeout must not be negative: %s", raw.Timeout)
		}
		cfg.Client.Timeout = d
	}

	if meta.IsDefined("timeout_ms") {
		if raw.TimeoutMS < 0 {
			return clientConfig{}, fmt.Errorf("timeout_ms must not be negative: %d", raw.TimeoutMS)
		}
		cfg.Client.Timeout = time.Duration(raw.TimeoutMS) * time.Millisecond
	}

	if meta.IsDefined("max_payload") {
		if raw.MaxPayload <= 0 || raw.MaxPayload > frame.MaxPayloadLimit {
			return clientConfig{}, fmt.Errorf("max_payload out of range (1-%d): %d", frame.MaxPayloadLimit, raw.MaxPayload)
		}
		cfg.Client.MaxPayload = raw.MaxPayload
	}

	if meta.IsDefined("device_name") {
		cfg.Client.DeviceName = strings.TrimSpace(raw.DeviceName)
	}

	if meta.IsDefined("icon_dir") {
		cfg.Client.IconDir = strings.TrimSpace(raw.IconDir)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return clientConfig{}, fmt.Errorf("unknown config keys: %v", undecoded)
	}

	return cfg, nil
}
