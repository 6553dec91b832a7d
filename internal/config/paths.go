package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	envConfigDir = "GRILLON_CONFIG_DIR"
	appDirName   = "grillon"
)

// Dir is GRILLON_CONFIG_DIR when set, otherwise grillon under the user
// config directory. It falls back to a dot directory in the working dir.
func Dir() string {
	if dir := strings.TrimSpace(os.Getenv(envConfigDir)); dir != "" {
		return dir
	}
	if base, err := os.UserConfigDir(); err == nil && base != "" {
		return filepath.Join(base, appDirName)
	}
	return "." + appDirName
}

func DefaultDBPath() string {
	return filepath.Join(Dir(), "grillon.db")
}

func DefaultLogPath() string {
	return filepath.Join(Dir(), "grillon.log")
}

func BindingsPath() string {
	return filepath.Join(Dir(), "bindings.toml")
}
