package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "client":
		return clientTemplate, nil
	case "relay":
		return relayTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const clientTemplate = `host = "kodi.local"
port = 9777
timeout = "5s"
max_payload = 1024
device_name = "notifyctl"
icon_dir = ""
`

const relayTemplate = `name = "notifyctl-relay"
addr = ":9780"
cors_origins = ["http://localhost:3000"]

[target]
host = "kodi.local"
port = 9777
timeout = "5s"
max_payload = 1024
device_name = "notifyctl"
icon_dir = "/var/lib/notifyctl/icons"
`
