package config

import (
	"os"
	"path/filepath"
)

// EnvPrefix prefixes environment overrides, e.g. CORELIB_NEO4J_PASSWORD.
const EnvPrefix = "CORELIB"

// DefaultHomeDir returns ~/.corelib, or a directory under the system temp
// dir if the user home cannot be determined.
func DefaultHomeDir() string {
	userHome, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".corelib")
	}
	return filepath.Join(userHome, ".corelib")
}

// DefaultConfigPath returns the default config file path for a given home directory
func DefaultConfigPath(homeDir string) string {
	return filepath.Join(homeDir, "config.yaml")
}
