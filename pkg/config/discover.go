package config

import (
	"os"
	"path/filepath"
)

const (
	manifestFilename = "mcp.yaml"
	agentFilename    = "agent.yaml"
)

// DiscoverProjectRoot walks up from start looking for either config
// file, stopping at the first directory that has one. If none is
// found by the filesystem root, it falls back to the XDG config
// directory (or OS equivalent), which may not exist yet.
func DiscoverProjectRoot(start string) (dir string, fallback bool) {
	dir = start
	for {
		if hasConfigFile(dir) {
			return dir, false
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return UserConfigDir(), true
}

func hasConfigFile(dir string) bool {
	for _, name := range []string{manifestFilename, agentFilename} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// UserConfigDir returns ${XDG_CONFIG_HOME}/binks, falling back to
// ${HOME}/.config/binks, and finally ./.config/binks if HOME is unset.
func UserConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			home = "."
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "binks")
}

// UserCacheDir returns ${XDG_CACHE_HOME}/binks-agent, falling back to
// ${HOME}/.cache/binks-agent.
func UserCacheDir() string {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			home = "."
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, "binks-agent")
}

// ManifestPath returns the conventional manifest path under root.
func ManifestPath(root string) string {
	return filepath.Join(root, manifestFilename)
}

// AgentConfigPath returns the conventional agent config path under
// root.
func AgentConfigPath(root string) string {
	return filepath.Join(root, agentFilename)
}
