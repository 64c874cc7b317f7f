package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome expands a leading '~' to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	if path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	// handle cases like ~/models/llm
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}

// PathExists checks if the given path exists.
func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}

// ResolveFile expands '~', makes path absolute and checks that it names a
// readable regular file. It returns the resolved path and its size.
func ResolveFile(path string) (string, int64, error) {
	if strings.TrimSpace(path) == "" {
		return "", 0, errors.New("empty path")
	}
	p, err := ExpandHome(path)
	if err != nil {
		return "", 0, err
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", 0, fmt.Errorf("abs path: %w", err)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return "", 0, err
	}
	if !fi.Mode().IsRegular() {
		return "", 0, fmt.Errorf("%s is not a regular file", abs)
	}
	f, err := os.Open(abs)
	if err != nil {
		return "", 0, err
	}
	_ = f.Close()
	return abs, fi.Size(), nil
}
