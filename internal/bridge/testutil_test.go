package bridge

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"unsafe"

	"llmbridge/internal/engine"
	"llmbridge/internal/handle"
)

func writeGGUF(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("GGUF"+body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

// newMockBridge builds a manager + bridge over the mock engine.
func newMockBridge(t *testing.T, cfg Config) (*handle.Manager, *Bridge) {
	t.Helper()
	cache := NewResultCache(cfg.CacheTTL, cfg.CacheCapacity)
	m := handle.New(handle.Config{Engine: engine.NewMock(), Publisher: cache})
	t.Cleanup(func() {
		_ = m.Close()
		cache.Close()
	})
	return m, New(m, cfg, cache, nil)
}

type genFunc func(ctx context.Context, prompt string, params engine.Params, onToken func(string) error) (engine.Result, error)

// scriptEngine hands out contexts whose Generate is driven by gen.
type scriptEngine struct {
	gen genFunc

	mu     sync.Mutex
	calls   int
	params  []engine.Params
	prompts []string
}

func (s *scriptEngine) Name() string { return "script" }

func (s *scriptEngine) Load(path string, opts engine.LoadOptions) (engine.Context, error) {
	return &scriptContext{s: s}, nil
}

func (s *scriptEngine) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

func (s *scriptEngine) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type scriptContext struct{ s *scriptEngine }

func (c *scriptContext) Generate(ctx context.Context, prompt string, params engine.Params, onToken func(string) error) (engine.Result, error) {
	c.s.mu.Lock()
	c.s.calls++
	c.s.params = append(c.s.params, params)
	c.s.prompts = append(c.s.prompts, prompt)
	c.s.mu.Unlock()
	return c.s.gen(ctx, prompt, params, onToken)
}

func (c *scriptContext) Close() error { return nil }

func newScriptBridge(t *testing.T, gen genFunc, cfg Config) (*handle.Manager, *Bridge, *scriptEngine) {
	t.Helper()
	eng := &scriptEngine{gen: gen}
	cache := NewResultCache(cfg.CacheTTL, cfg.CacheCapacity)
	m := handle.New(handle.Config{Engine: eng, Publisher: cache})
	if _, err := m.Load(context.Background(), writeGGUF(t, t.TempDir(), "script.gguf", "")); err != nil {
		t.Fatalf("Load: %v", err)
	}
	t.Cleanup(func() {
		_ = m.Close()
		cache.Close()
	})
	return m, New(m, cfg, cache, nil), eng
}

// aliasingGen mimics an engine that streams tokens as views into one reused
// scratch buffer and returns its final text as a view into that buffer too.
type aliasingGen struct {
	buf []byte
}

func (a *aliasingGen) gen(ctx context.Context, prompt string, params engine.Params, onToken func(string) error) (engine.Result, error) {
	a.buf = a.buf[:0]
	for _, w := range []string{"calm", " seas", " today"} {
		start := len(a.buf)
		a.buf = append(a.buf, w...)
		if err := onToken(unsafe.String(&a.buf[start], len(w))); err != nil {
			return engine.Result{}, err
		}
	}
	return engine.Result{Text: unsafe.String(&a.buf[0], len(a.buf)), Tokens: 3}, nil
}
