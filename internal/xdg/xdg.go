// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TTSFeed Contributors

// Package xdg resolves the XDG base directory used for the config file.
package xdg

import (
	"os"
	"path/filepath"
)

const appName = "ttsfeed"

// ConfigDir returns $XDG_CONFIG_HOME/ttsfeed, falling back to ~/.config/ttsfeed.
func ConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// ConfigFile returns the default config file path.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
