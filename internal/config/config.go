package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/danmuck/notifyctl/internal/eventclient"
	"github.com/danmuck/notifyctl/internal/protocol/frame"
	"github.com/pelletier/go-toml/v2"
)

// RelayConfig configures `notifyctl serve`.
type RelayConfig struct {
	Name        string       `toml:"name"`
	Addr        string       `toml:"addr"`
	CorsOrigins []string     `toml:"cors_origins"`
	Target      TargetConfig `toml:"target"`
}

// TargetConfig is the default device and send settings for relayed events.
type TargetConfig struct {
	Host       string `toml:"host"`
	Port       int    `toml:"port"`
	Timeout    string `toml:"timeout"`
	MaxPayload int    `toml:"max_payload"`
	DeviceName string `toml:"device_name"`
	IconDir    string `toml:"icon_dir"`
}

func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		Name: "notifyctl-relay",
		Addr: ":9780",
		Target: TargetConfig{
			Port:    eventclient.DefaultPort,
			Timeout: "5s",
		},
	}
}

func LoadRelayConfig(path string) (RelayConfig, error) {
	cfg := DefaultRelayConfig()
	if err := loadToml(path, &cfg); err != nil {
		return RelayConfig{}, err
	}
	if strings.TrimSpace(cfg.Name) == "" {
		cfg.Name = "notifyctl-relay"
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = ":9780"
	}
	if err := ValidateRelayConfig(cfg); err != nil {
		return RelayConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateRelayConfig(cfg RelayConfig) error {
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("relay config missing addr")
	}
	if cfg.Target.Port < 0 || cfg.Target.Port > 0xffff {
		return fmt.Errorf("target port out of range: %d", cfg.Target.Port)
	}
	if cfg.Target.MaxPayload < 0 || cfg.Target.MaxPayload > frame.MaxPayloadLimit {
		return fmt.Errorf("target max_payload out of range (0-%d): %d", frame.MaxPayloadLimit, cfg.Target.MaxPayload)
	}
	if _, err := parseTimeout(cfg.Target.Timeout); err != nil {
		return err
	}
	return nil
}

// ClientConfig converts the target section into event-client settings.
func (c RelayConfig) ClientConfig() (eventclient.Config, error) {
	out := eventclient.DefaultConfig()
	if c.Target.Port != 0 {
		out.Port = c.Target.Port
	}
	if c.Target.MaxPayload != 0 {
		out.MaxPayload = c.Target.MaxPayload
	}
	if v := strings.TrimSpace(c.Target.DeviceName); v != "" {
		out.DeviceName = v
	}
	out.IconDir = strings.TrimSpace(c.Target.IconDir)
	timeout, err := parseTimeout(c.Target.Timeout)
	if err != nil {
		return eventclient.Config{}, err
	}
	if timeout > 0 {
		out.Timeout = timeout
	}
	return out, nil
}

func parseTimeout(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse target timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("target timeout must not be negative")
	}
	return d, nil
}
