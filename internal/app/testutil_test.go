package app

import (
	"os"
	"path/filepath"
	"testing"

	"llmbridge/internal/config"
	"llmbridge/internal/engine"
)

func writeGGUF(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("GGUF"+body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

// mockConfig returns a config over the mock engine with models in dir.
func mockConfig(dir string) config.Config {
	cfg := config.Default()
	cfg.Engine = engine.KindMock
	cfg.ModelsDir = dir
	cfg.Generation.MaxTokens = 12
	return cfg
}

func newMockApp(t *testing.T, cfg config.Config, oo ...Option) *App {
	t.Helper()
	a, err := New(cfg, oo...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}
