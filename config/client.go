package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const defaultAPIURL = "http://localhost:3000"

// ClientConfig configures the command line client.
//
//	api_url = "https://api.cinescope.example"
//	session_file = "/home/me/.config/cinescope/session.json"
type ClientConfig struct {
	APIURL      string `toml:"api_url"`
	SessionFile string `toml:"session_file"`
}

// DefaultClientConfigPath returns the per-user client config location.
func DefaultClientConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cinescope", "client.toml"), nil
}

// LoadClientConfig reads path when it exists, then applies CINESCOPE_API_URL.
// A missing file yields the defaults.
func LoadClientConfig(path string) (ClientConfig, error) {
	cfg := ClientConfig{APIURL: defaultAPIURL}

	if path != "" {
		file, err := os.Open(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("open client config: %w", err)
		default:
			defer file.Close()
			if err := toml.NewDecoder(file).Decode(&cfg); err != nil {
				return cfg, fmt.Errorf("parse client config %s: %w", path, err)
			}
		}
	}

	if v := strings.TrimSpace(os.Getenv("CINESCOPE_API_URL")); v != "" {
		cfg.APIURL = v
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	return cfg, nil
}
