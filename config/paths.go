package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const appDir = "muhabbet"

// GetConfigDir returns ~/.config/muhabbet on every platform.
func GetConfigDir() string {
	return filepath.Join(GetHomeDir(), ".config", appDir)
}

// GetDefaultDataDir returns the data directory used when data_directory is
// unset: %LOCALAPPDATA%\muhabbet on Windows, ~/.local/share/muhabbet elsewhere.
func GetDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return filepath.Join(dir, appDir)
		}
		return filepath.Join(GetHomeDir(), "AppData", "Local", appDir)
	}
	return filepath.Join(GetHomeDir(), ".local", "share", appDir)
}

func GetConfigFilePath() string {
	return filepath.Join(GetConfigDir(), "config.toml")
}

// DatabasePath returns the path of the conversation database in dataDir.
func DatabasePath(dataDir string) string {
	return filepath.Join(dataDir, "muhabbet.db")
}

// GetHomeDir prefers $HOME so tests and containers can redirect it, then
// falls back to the OS lookup.
func GetHomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return home
	}
	return string(filepath.Separator)
}

// ExpandPath resolves a leading ~/ and $VARS, then cleans the result.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		path = filepath.Join(GetHomeDir(), rest)
	}
	return filepath.Clean(os.ExpandEnv(path))
}

// EnsureDir creates path with user-only access.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0700)
}

func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// EnsureDataDirPermissions creates dataDir or tightens it to 0700. The
// database and credential files live there.
func EnsureDataDirPermissions(dataDir string) error {
	info, err := os.Stat(dataDir)
	if errors.Is(err, fs.ErrNotExist) {
		return EnsureDir(dataDir)
	}
	if err != nil {
		return err
	}
	if runtime.GOOS == "windows" || info.Mode().Perm() == 0700 {
		return nil
	}
	return os.Chmod(dataDir, 0700)
}
