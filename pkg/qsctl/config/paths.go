package config

import (
	"os"
	"path/filepath"
)

const (
	defaultConfigDirName   = "qsctl"
	defaultConfigFile      = "config.yaml"
	defaultCredentialsFile = "credentials.json"
)

func DefaultConfigPath() string {
	if env := os.Getenv("QSCTL_CONFIG"); env != "" {
		return env
	}
	base, err := os.UserConfigDir()
	if err == nil {
		return filepath.Join(base, defaultConfigDirName, defaultConfigFile)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".qsctl", defaultConfigFile)
}

// DefaultCredentialsPath is where the file-backed credential store lives when
// the OS keychain is unavailable or disabled.
func DefaultCredentialsPath() string {
	if env := os.Getenv("QSCTL_CREDENTIALS"); env != "" {
		return env
	}
	base, err := os.UserConfigDir()
	if err == nil {
		return filepath.Join(base, defaultConfigDirName, defaultCredentialsFile)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".qsctl", defaultCredentialsFile)
}
