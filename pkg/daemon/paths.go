package daemon

import (
	"path/filepath"

	"github.com/binkshq/binks/pkg/config"
)

// DefaultSocketPath returns ${CACHE_DIR}/binks-agent/mcps.sock (§6).
func DefaultSocketPath() string {
	return filepath.Join(config.UserCacheDir(), "mcps.sock")
}

// DefaultPIDPath returns ${CACHE_DIR}/binks-agent/mcps.pid.
func DefaultPIDPath() string {
	return filepath.Join(config.UserCacheDir(), "mcps.pid")
}

// DefaultLogDir returns ${CACHE_DIR}/binks-agent/logs.
func DefaultLogDir() string {
	return filepath.Join(config.UserCacheDir(), "logs")
}
