// Package runtimepath locates the per-user runtime directory holding the
// IPC socket and other transient daemon state.
package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
)

// Dir resolves the runtime directory: XDG_RUNTIME_DIR when set, then the
// systemd-managed /run/user/<uid> when it exists. The temp-dir fallback
// covers sessions without a login manager and is created on demand; 0700
// keeps the socket private to the user.
func Dir() (string, error) {
	if d := os.Getenv("XDG_RUNTIME_DIR"); d != "" {
		return d, nil
	}

	uid := os.Getuid()
	if d := fmt.Sprintf("/run/user/%d", uid); isDir(d) {
		return d, nil
	}

	d := filepath.Join(os.TempDir(), fmt.Sprintf("displaysnap-%d", uid))
	if err := os.MkdirAll(d, 0700); err != nil {
		return "", fmt.Errorf("failed to create runtime dir: %w", err)
	}
	return d, nil
}

// Join resolves the runtime directory and appends name to it.
func Join(name string) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// SocketPath returns the daemon IPC socket path.
func SocketPath() (string, error) {
	return Join("displaysnap.sock")
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
