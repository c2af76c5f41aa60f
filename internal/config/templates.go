package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Trade Journal Configuration

[journal]
# Document key; one key per journal
key = "default"
# Starting capital for new journals
default_starting_capital = 0.0
# Currency symbol used in terminal output
currency_symbol = "$"

[storage]
# Backend: "file", "sqlite" or "postgres"
backend = "file"
# Directory (file) or database path (sqlite); empty means next to this config
path = ""
# PostgreSQL connection string (postgres backend only)
dsn = ""
max_conns = 4

[calendar]
# First day of the week: sunday, monday, ...
week_start = "sunday"
# IANA time zone for trade dates, or "Local"
timezone = "Local"

[analytics]
# Groups with fewer trades are left out of best-performer cards
min_group_trades = 1
# Memoized view lifetime (e.g., "5m", "30s")
cache_ttl = "5m"
cache_max_cost = 1048576

[logging]
# Level: debug, info, warn, error
level = "info"
console = true
file = true
# Defaults to logs/journal.log next to this config
# file_path = ""
max_size = 20
max_backups = 5
max_age = 30

[server]
addr = "127.0.0.1:8080"
# Gin mode: debug, release, test
mode = "release"
`

func createTemplateConfig(configDir, name string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name+".toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
