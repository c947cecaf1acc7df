// Package paths provides XDG-compliant path resolution for elementipelago.
//
// Resolution order:
// 1. ELEMENTIPELAGO_HOME (portable root) → $ELEMENTIPELAGO_HOME/{config,state,cache}
// 2. XDG env vars → $XDG_*_HOME/elementipelago
// 3. Platform defaults → os.UserCacheDir / ~/.config / ~/.local/state
package paths

import (
	"os"
	"path/filepath"
)

const appName = "elementipelago"

// getConfigHome returns the base config home directory.
func getConfigHome() string {
	if home := os.Getenv("ELEMENTIPELAGO_HOME"); home != "" {
		return filepath.Join(home, "config")
	}
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return xdgConfigHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config")
	}
	return ""
}

// getStateHome returns the base state home directory.
func getStateHome() string {
	if home := os.Getenv("ELEMENTIPELAGO_HOME"); home != "" {
		return filepath.Join(home, "state")
	}
	if xdgStateHome := os.Getenv("XDG_STATE_HOME"); xdgStateHome != "" {
		return xdgStateHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "state")
	}
	return ""
}

// getCacheHome returns the base cache home directory.
// Falls back to the platform cache dir (Library/Caches, %LocalAppData%) when XDG is unset.
func getCacheHome() string {
	if home := os.Getenv("ELEMENTIPELAGO_HOME"); home != "" {
		return filepath.Join(home, "cache")
	}
	if xdgCacheHome := os.Getenv("XDG_CACHE_HOME"); xdgCacheHome != "" {
		return xdgCacheHome
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return dir
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".cache")
	}
	return ""
}

// ConfigDir returns the configuration directory.
// Used for the global elementipelago.yml.
func ConfigDir() string {
	base := getConfigHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, appName)
}

// StateDir returns the state directory.
// Used for runtime state such as the last successful connection.
func StateDir() string {
	base := getStateHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, appName)
}

// CacheDir returns the cache directory.
// Used for regenerable data.
func CacheDir() string {
	base := getCacheHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, appName)
}

// DataPackageDir returns the directory holding one cached datapackage per game.
func DataPackageDir() string {
	cache := CacheDir()
	if cache == "" {
		return ""
	}
	return filepath.Join(cache, "datapackages")
}

// StateFilePath returns the path to the persisted client state file.
func StateFilePath() string {
	dir := StateDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "state.yml")
}
