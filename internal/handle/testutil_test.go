package handle

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"llmbridge/internal/engine"
)

// writeArtifact creates a small model file and returns its path.
func writeArtifact(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("GGUF"+name), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

// fakeEngine is a scriptable in-memory engine used for tests.
type fakeEngine struct {
	mu       sync.Mutex
	loadErr  error
	panicMsg string
	closeErr error
	loaded   []string
	open     atomic.Int32
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Load(path string, opts engine.LoadOptions) (engine.Context, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	f.loaded = append(f.loaded, path)
	f.open.Add(1)
	return &fakeContext{f: f, path: path}, nil
}

type fakeContext struct {
	f      *fakeEngine
	path   string
	closed bool
}

func (c *fakeContext) Generate(ctx context.Context, prompt string, params engine.Params, onToken func(string) error) (engine.Result, error) {
	if err := onToken(filepath.Base(c.path)); err != nil {
		return engine.Result{}, err
	}
	return engine.Result{Text: filepath.Base(c.path), Tokens: 1}, nil
}

func (c *fakeContext) Close() error {
	if !c.closed {
		c.closed = true
		c.f.open.Add(-1)
	}
	return c.f.closeErr
}
