// Package paths resolves the project and configuration directory locations.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultConfigDirName is the project-relative configuration directory.
const DefaultConfigDirName = ".traitforge"

// Environment variable names for directory overrides.
const (
	EnvProjectDir = "TRAITFORGE_PROJECT_DIR"
	EnvConfigDir  = "TRAITFORGE_CONFIG_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	getwd         func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	getwd:         os.Getwd,
}

// UserConfigDir returns the platform-specific user-wide configuration
// directory, consulted when a project has no config.yaml of its own.
//
// Linux:   $XDG_CONFIG_HOME/traitforge (fallback ~/.config/traitforge)
// macOS:   ~/Library/Application Support/traitforge
// Windows: %APPDATA%/traitforge
func UserConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "traitforge"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "traitforge"), nil
	default:
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "traitforge"), nil
	}
}

// ResolveProjectDir returns the project directory following the precedence
// chain: flag > TRAITFORGE_PROJECT_DIR env > CWD.
func ResolveProjectDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvProjectDir); env != "" {
		return filepath.Abs(env)
	}
	return platformDir.getwd()
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > TRAITFORGE_CONFIG_DIR env > <projectDir>/.traitforge.
func ResolveConfigDir(flag, projectDir string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return filepath.Join(projectDir, DefaultConfigDirName), nil
}

// Resolve joins p onto base unless p is already absolute.
func Resolve(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
