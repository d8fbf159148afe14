// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 JamHost Contributors

// Package xdg provides XDG Base Directory paths for jamhost.
package xdg

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const appName = "jamhost"

// ConfigFileName is the name of the optional config file in ConfigDir.
const ConfigFileName = "config.yaml"

// ConfigDir returns the XDG config directory for jamhost.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to locate home directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, appName), nil
}

// DefaultConfigFile returns the path of config.yaml in dir, or "" if there
// is no such file.
func DefaultConfigFile(dir string) (string, error) {
	if dir == "" {
		return "", nil
	}
	path := filepath.Join(dir, ConfigFileName)
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	case info.IsDir():
		return "", fmt.Errorf("%s is a directory", path)
	}
	return path, nil
}
