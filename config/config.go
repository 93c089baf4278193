// Package config resolves the per-user directories Photomark writes to and
// wraps the fyne preference store.
package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"
)

// GetPath returns the path to the user's config directory.
func GetPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("Error getting user home directory: %v", err)
	}
	return filepath.Join(homeDir, "."+strings.ToLower(AppName))
}

// GetTemplatesPath returns the directory holding named templates.
func GetTemplatesPath() string {
	return filepath.Join(GetPath(), TemplatesDirName)
}

// GetLastUsedPath returns the path of the last-used session file.
func GetLastUsedPath() string {
	return filepath.Join(GetPath(), LastUsedFileName)
}

// EnsureDirs creates the config directory tree if missing.
func EnsureDirs() error {
	if err := os.MkdirAll(GetPath(), 0700); err != nil {
		return err
	}
	return os.MkdirAll(GetTemplatesPath(), 0700)
}
