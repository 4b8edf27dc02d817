package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# ibkr-trader configuration

[gateway]
host = "127.0.0.1"
port = 7497        # 7497 paper, 7496 live
client_id = 1
# account = "DU1234567"   # empty = first managed account
paper = true
timeout = "10s"

[session]
reconnect_attempts = 3
reconnect_backoff = "2s"

[marketdata]
poll_interval = "250ms"
max_wait = "5s"

[chain]
workers = 2
strike_window = 10

[logging]
level = "info"
console = true
file = true

[audit]
enabled = true
`

// WriteTemplate writes a commented template config.toml into the directory,
// creating it if needed. Existing files are never overwritten.
func WriteTemplate(configDir string) error {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}
	return nil
}
