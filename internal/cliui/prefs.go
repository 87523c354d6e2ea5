package cliui

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Prefs is the companion CLI's local preferences, stored outside any
// project (unlike .mcp-tasks.edn, which is per-project).
type Prefs struct {
	DefaultCategory string `toml:"default-category"`
	NoColor         bool   `toml:"no-color"`
	ServerCommand   string `toml:"server-command"`
}

func prefsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "mcp-tasks", "cli.toml"), nil
}

// LoadPrefs reads the preferences file, returning zero-value Prefs if it
// does not exist yet.
func LoadPrefs() (*Prefs, error) {
	path, err := prefsPath()
	if err != nil {
		return &Prefs{}, nil
	}
	var p Prefs
	if _, err := toml.DecodeFile(path, &p); err != nil {
		if os.IsNotExist(err) {
			return &Prefs{}, nil
		}
		return nil, err
	}
	return &p, nil
}

// Save writes p back to the preferences file, creating its directory if
// needed.
func (p *Prefs) Save() error {
	path, err := prefsPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(p); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
