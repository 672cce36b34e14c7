// Package config provides configuration utilities for the application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/sakhi/internal/common"
)

// ExpandPath expands $VAR references and a leading ~, then cleans the result.
func ExpandPath(path string) string {
	path = os.ExpandEnv(strings.TrimSpace(path))
	if path == "" {
		return ""
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return filepath.Clean(path)
}

// ResolveDatabasePath turns database.path into an absolute file path so the
// history commands agree on one file whatever their working directory. An
// empty value stays empty.
func ResolveDatabasePath(path string) (string, error) {
	expanded := ExpandPath(path)
	if expanded == "" {
		return "", nil
	}

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("%w: database.path %q: %v", common.ErrInvalidConfig, path, err)
	}
	if info, statErr := os.Stat(abs); statErr == nil && info.IsDir() {
		return "", fmt.Errorf("%w: database.path %q is a directory", common.ErrInvalidConfig, path)
	}
	return abs, nil
}
