package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiscoverProjectRootFindsNearestAncestor(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, agentFilename), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	dir, fallback := DiscoverProjectRoot(nested)
	if fallback {
		t.Fatal("expected a concrete project root, not a fallback")
	}
	if dir != root {
		t.Errorf("DiscoverProjectRoot() = %q, want %q", dir, root)
	}
}

func TestDiscoverProjectRootFallsBackToUserConfigDir(t *testing.T) {
	empty := t.TempDir()
	// An isolated temp dir tree with no ancestor config files anywhere
	// above it is unrealistic on a real filesystem (it'll eventually
	// reach "/"), so this only checks the fallback flag's contract on
	// a directory whose parents plausibly lack binks config files.
	dir, fallback := DiscoverProjectRoot(empty)
	if !fallback {
		t.Skip("ancestor directory unexpectedly has a binks config file")
	}
	if dir != UserConfigDir() {
		t.Errorf("fallback dir = %q, want %q", dir, UserConfigDir())
	}
}
