// Package dotdir resolves the .memgate/ state directory.
//
// Configuration, spool databases, and context templates live under a
// .memgate/ directory. Resolution walks a fixed precedence chain and always
// materializes the winning directory, so callers never have to handle a
// missing state dir.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

// dirName is the name of the memgate state directory.
const dirName = ".memgate"

// envHome overrides resolution entirely when set, for deployments where
// neither the working directory nor the user home is writable.
const envHome = "MEMGATE_HOME"

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target resolves and creates the .memgate/ directory, returning its
// absolute path. Precedence:
//  1. The overrideDir argument (--config-dir)
//  2. The MEMGATE_HOME environment variable
//  3. A ./.memgate/ directory that already exists in the working directory
//  4. ~/.memgate/, created if missing
func (m *Manager) Target(overrideDir string) (string, error) {
	dir, err := m.resolve(overrideDir)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating memgate directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

func (m *Manager) resolve(overrideDir string) (string, error) {
	if overrideDir != "" {
		return overrideDir, nil
	}

	if env := os.Getenv(envHome); env != "" {
		return env, nil
	}

	if local, ok := m.localDir(); ok {
		return local, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// localDir reports a .memgate/ directory in the working directory, if one
// already exists. The local dir is never created implicitly; only an explicit
// override or the home fallback materializes a new location.
func (m *Manager) localDir() (string, bool) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", false
	}

	path := filepath.Join(cwd, dirName)
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return "", false
	}

	return path, true
}
