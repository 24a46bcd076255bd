package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadClientConfigExample(t *testing.T) {
	cfg, err := loadClientConfig("ex.config.toml")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Host != "kodi.local" {
		t.Fatalf("unexpected host: %q", cfg.Host)
	}
	if cfg.Client.Port != 9777 {
		t.Fatalf("unexpected port: %d", cfg.Client.Port)
	}
	if cfg.Client.Timeout != 2*time.Second {
		t.Fatalf("unexpected timeout: %v", cfg.Client.Timeout)
	}
	if cfg.Client.MaxPayload != 512 {
		t.Fatalf("unexpected max payload: %d", cfg.Client.MaxPayload)
	}
	if cfg.Client.DeviceName != "sonarr" {
		t.Fatalf("unexpected device name: %q", cfg.Client.DeviceName)
	}
	if cfg.Client.IconDir != "icons" {
		t.Fatalf("unexpected icon dir: %q", cfg.Client.IconDir)
	}
}

func TestLoadClientConfigKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.toml")
	if err := os.WriteFile(path, []byte("timeout_ms = 250\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := loadClientConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	def := defaultClientConfig()
	if cfg.Host != def.Host || cfg.Client.Port != def.Client.Port || cfg.Client.MaxPayload != def.Client.MaxPayload {
		t.Fatalf("defaults not preserved: %+v", cfg)
	}
	if cfg.Client.Timeout != 250*time.Millisecond {
		t.Fatalf("unexpected timeout: %v", cfg.Client.Timeout)
	}
}

func TestLoadClientConfigRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"port":             "port = 70000\n",
		"timeout":          "timeout = \"later\"\n",
		"unknown":          "hots = \"typo\"\n",
		"payload":          "max_payload = 0\n",
		"payload_too_big":  "max_payload = 100000\n",
		"negative_ms":      "timeout_ms = -5\n",
		"negative_timeout": "timeout = \"-2s\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name+".toml")
			if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
				t.Fatalf("write: %v", err)
			}
			if _, err := loadClientConfig(path); err == nil {
				t.Fatalf("expected error for %q", strings.TrimSpace(body))
			}
		})
	}
}
