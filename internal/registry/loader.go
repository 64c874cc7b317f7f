package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"llmbridge/internal/common/fsutil"
	"llmbridge/pkg/types"
)

// Scanner discovers model artifacts in a directory.
type Scanner interface {
	Scan(dir string) ([]types.Model, error)
}

// GGUFScanner lists *.gguf files (case-insensitive) in one directory level.
type GGUFScanner struct{}

func NewGGUFScanner() GGUFScanner { return GGUFScanner{} }

// Scan builds a registry from filenames. ID is the full filename (including
// extension); Path is the absolute file path. Results are sorted by ID.
func (GGUFScanner) Scan(dir string) ([]types.Model, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []types.Model
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".gguf") {
			continue
		}
		var size int64
		if fi, err := e.Info(); err == nil {
			size = fi.Size()
		}
		models = append(models, types.Model{
			ID:        name,
			Name:      strings.TrimSuffix(name, filepath.Ext(name)),
			Path:      filepath.Join(abs, name),
			SizeBytes: size,
		})
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models, nil
}

// LoadDir is a convenience wrapper around GGUFScanner.Scan.
func LoadDir(dir string) ([]types.Model, error) { return NewGGUFScanner().Scan(dir) }

// Resolve maps a model reference to a path: an ID present in models wins,
// anything else is treated as a filesystem path.
func Resolve(models []types.Model, ref string) string {
	for _, m := range models {
		if m.ID == ref || m.Name == ref {
			return m.Path
		}
	}
	return ref
}
