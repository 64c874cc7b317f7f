package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	if runtime.GOOS == "windows" {
		t.Setenv("USERPROFILE", home)
	}
	if got, err := ExpandHome("/tmp"); err != nil || got != "/tmp" {
		t.Fatalf("got %q err=%v", got, err)
	}
	if got, err := ExpandHome(""); err != nil || got != "" {
		t.Fatalf("got %q err=%v", got, err)
	}
	if p, err := ExpandHome("~"); err != nil || p != home {
		t.Fatalf("ExpandHome(~) = %q, %v; want %q", p, err, home)
	}
	exp, err := ExpandHome("~/models")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if filepath.Base(exp) != "models" || filepath.Dir(exp) != home {
		t.Fatalf("unexpected expanded path: %q", exp)
	}
}

func TestResolveFile(t *testing.T) {
	d := t.TempDir()
	p := filepath.Join(d, "valid.gguf")
	if err := os.WriteFile(p, []byte("GGUF1234"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	abs, size, err := ResolveFile(p)
	if err != nil {
		t.Fatalf("ResolveFile: %v", err)
	}
	if abs != p || size != 8 {
		t.Fatalf("got (%q, %d), want (%q, 8)", abs, size, p)
	}

	if _, _, err := ResolveFile(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
	if _, _, err := ResolveFile(filepath.Join(d, "missing.bin")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist, got %v", err)
	}
	if _, _, err := ResolveFile(d); err == nil {
		t.Fatalf("expected error for directory")
	}
}

func TestPathExists(t *testing.T) {
	d := t.TempDir()
	if !PathExists(d) {
		t.Fatalf("temp dir reported missing")
	}
	if PathExists(filepath.Join(d, "nope")) {
		t.Fatalf("missing path reported present")
	}
}
