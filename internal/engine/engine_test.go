package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeModel(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func generate(t *testing.T, c Context, prompt string, params Params) string {
	t.Helper()
	var streamed strings.Builder
	res, err := c.Generate(context.Background(), prompt, params, func(tok string) error {
		streamed.WriteString(tok)
		return nil
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Text != streamed.String() {
		t.Fatalf("final text %q differs from streamed %q", res.Text, streamed.String())
	}
	return res.Text
}

func TestNew_Kinds(t *testing.T) {
	for kind, want := range map[string]string{"": KindLlama, "llama": KindLlama, "MOCK": KindMock, "none": KindNone} {
		e, err := New(kind)
		if err != nil {
			t.Fatalf("New(%q): %v", kind, err)
		}
		if e.Name() != want {
			t.Fatalf("New(%q).Name() = %q, want %q", kind, e.Name(), want)
		}
	}
	if _, err := New("tensorrt"); err == nil {
		t.Fatalf("expected error for unknown engine")
	}
}

func TestNull_NeverLoads(t *testing.T) {
	c, err := Null{}.Load("anything.gguf", LoadOptions{})
	if c != nil || !IsDependencyUnavailable(err) {
		t.Fatalf("Null.Load = (%v, %v), want dependency unavailable", c, err)
	}
}

func TestMock_RejectsNonGGUF(t *testing.T) {
	d := t.TempDir()
	p := writeModel(t, d, "weights.bin", "PK\x03\x04 not a model")
	if _, err := NewMock().Load(p, LoadOptions{}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	short := writeModel(t, d, "short.gguf", "GG")
	if _, err := NewMock().Load(short, LoadOptions{}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat for truncated header, got %v", err)
	}
}

func TestMock_MissingFile(t *testing.T) {
	_, err := NewMock().Load(filepath.Join(t.TempDir(), "missing.gguf"), LoadOptions{})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestMock_GreedyIsDeterministic(t *testing.T) {
	p := writeModel(t, t.TempDir(), "a.gguf", "GGUF model-a")
	c, err := NewMock().Load(p, LoadOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer c.Close()
	params := Params{Temperature: 0, TopK: 1, Seed: 42, MaxTokens: 12}
	first := generate(t, c, "Tell me about today", params)
	second := generate(t, c, "Tell me about today", params)
	if first == "" || first != second {
		t.Fatalf("greedy outputs differ or empty: %q vs %q", first, second)
	}
	if got := len(strings.Fields(first)); got != 12 {
		t.Fatalf("expected 12 tokens, got %d", got)
	}
}

func TestMock_OutputDependsOnModel(t *testing.T) {
	d := t.TempDir()
	a, err := NewMock().Load(writeModel(t, d, "a.gguf", "GGUF weights of a"), LoadOptions{})
	if err != nil {
		t.Fatalf("Load a: %v", err)
	}
	b, err := NewMock().Load(writeModel(t, d, "b.gguf", "GGUF weights of b"), LoadOptions{})
	if err != nil {
		t.Fatalf("Load b: %v", err)
	}
	params := Params{TopK: 1, Seed: 7, MaxTokens: 24}
	if generate(t, a, "hello", params) == generate(t, b, "hello", params) {
		t.Fatalf("different models produced identical output")
	}
}

func TestMock_ContextLengthExceeded(t *testing.T) {
	p := writeModel(t, t.TempDir(), "a.gguf", "GGUF")
	c, err := NewMock().Load(p, LoadOptions{ContextSize: 3})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	_, err = c.Generate(context.Background(), "one two three four", Params{}, func(string) error { return nil })
	if !errors.Is(err, ErrContextLengthExceeded) {
		t.Fatalf("expected ErrContextLengthExceeded, got %v", err)
	}
	// the context stays usable after the failure
	if out := generate(t, c, "one two", Params{MaxTokens: 2}); out == "" {
		t.Fatalf("expected output after recoverable failure")
	}
}

func TestMock_OnTokenErrorStops(t *testing.T) {
	p := writeModel(t, t.TempDir(), "a.gguf", "GGUF")
	c, _ := NewMock().Load(p, LoadOptions{})
	stop := errors.New("sink closed")
	calls := 0
	_, err := c.Generate(context.Background(), "hi", Params{MaxTokens: 10}, func(string) error {
		calls++
		if calls == 3 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) || calls != 3 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}
}

func TestMock_ClosedContextIsCorrupted(t *testing.T) {
	p := writeModel(t, t.TempDir(), "a.gguf", "GGUF")
	c, _ := NewMock().Load(p, LoadOptions{})
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := c.Generate(context.Background(), "hi", Params{}, func(string) error { return nil }); !errors.Is(err, ErrContextCorrupted) {
		t.Fatalf("expected ErrContextCorrupted, got %v", err)
	}
}

func TestParams_Greedy(t *testing.T) {
	if !(Params{}).Greedy() {
		t.Fatalf("zero temperature must be greedy")
	}
	if !(Params{Temperature: 0.8, TopK: 1}).Greedy() {
		t.Fatalf("top-k 1 must be greedy")
	}
	if (Params{Temperature: 0.8, TopK: 40}).Greedy() {
		t.Fatalf("sampling params reported greedy")
	}
}
