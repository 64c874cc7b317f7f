//go:build cgo

package main

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llmbridge/internal/ffi"
)

// arg returns a C copy of s that is freed when the test ends, the way a
// foreign caller owns its argument buffers.
func arg(t *testing.T, s string) *cChar {
	t.Helper()
	p := cString(s)
	t.Cleanup(func() { llmbridge_free_string(p) })
	return p
}

// initMock points the process-wide host at a mock-engine config and returns
// the directory holding it.
func initMock(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "llmbridge.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("engine: mock\nlog_level: off\ngeneration:\n  max_tokens: 8\n"), 0o644))
	require.Equal(t, int(ffi.OK), int(llmbridge_init(arg(t, cfg))))
	t.Cleanup(func() { llmbridge_shutdown() })
	return dir
}

func writeModel(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("GGUF\x03\x00\x00\x00weights-"+name), 0o644))
	return p
}

func TestLastErrorNullBeforeAnyFailure(t *testing.T) {
	lastErr.Store(nil)
	assert.Nil(t, llmbridge_last_error())
}

func TestPredictReturnsCallerOwnedCopy(t *testing.T) {
	dir := initMock(t)
	require.True(t, bool(llmbridge_load_model(arg(t, writeModel(t, dir, "valid.gguf")))))
	require.True(t, bool(llmbridge_is_model_loaded()))

	st := newStatus()
	out := llmbridge_predict(arg(t, "Tell me about today"), st)
	require.NotNil(t, out)
	assert.Equal(t, int(ffi.OK), statusValue(st))
	first := goString(out)
	assert.NotEmpty(t, first)
	llmbridge_free_string(out)

	// A second call allocates a fresh buffer with the same deterministic text.
	out2 := llmbridge_predict(arg(t, "Tell me about today"), nil)
	require.NotNil(t, out2)
	assert.Equal(t, first, goString(out2))
	llmbridge_free_string(out2)
}

func TestPredictNullPrompt(t *testing.T) {
	initMock(t)
	st := newStatus()
	assert.Nil(t, llmbridge_predict(nil, st))
	assert.Equal(t, int(ffi.InvalidArgument), statusValue(st))

	msg := llmbridge_last_error()
	require.NotNil(t, msg)
	assert.Equal(t, "prompt is NULL", goString(msg))
	llmbridge_free_string(msg)
}

func TestPredictNullStatusTolerated(t *testing.T) {
	initMock(t)
	assert.Nil(t, llmbridge_predict(arg(t, "hello"), nil))
	assert.Nil(t, llmbridge_predict(nil, nil))
}

func TestPredictNotLoaded(t *testing.T) {
	initMock(t)
	st := newStatus()
	assert.Nil(t, llmbridge_predict(arg(t, "hello"), st))
	assert.Equal(t, int(ffi.NotLoaded), statusValue(st))
}

func TestPredictExHandsBackMessage(t *testing.T) {
	dir := initMock(t)
	require.True(t, bool(llmbridge_load_model(arg(t, writeModel(t, dir, "valid.gguf")))))

	var errOut *cChar
	st := newStatus()
	assert.Nil(t, llmbridge_predict_ex(arg(t, "  "), st, &errOut))
	assert.Equal(t, int(ffi.InvalidArgument), statusValue(st))
	require.NotNil(t, errOut)
	assert.Contains(t, goString(errOut), "prompt")
	llmbridge_free_string(errOut)

	errOut = nil
	out := llmbridge_predict_ex(arg(t, "hi"), st, &errOut)
	require.NotNil(t, out)
	assert.Nil(t, errOut, "success leaves err_out untouched")
	llmbridge_free_string(out)
}

func TestLoadModelFailures(t *testing.T) {
	dir := initMock(t)
	assert.False(t, bool(llmbridge_load_model(nil)))

	var errOut *cChar
	missing := filepath.Join(dir, "missing.bin")
	assert.False(t, bool(llmbridge_load_model_ex(arg(t, missing), &errOut)))
	require.NotNil(t, errOut)
	assert.Contains(t, goString(errOut), "missing.bin")
	llmbridge_free_string(errOut)
	assert.False(t, bool(llmbridge_is_model_loaded()))

	msg := llmbridge_last_error()
	require.NotNil(t, msg)
	assert.Contains(t, goString(msg), "missing.bin")
	llmbridge_free_string(msg)
}

func TestConcurrentCallersGetTheirOwnMessages(t *testing.T) {
	dir := initMock(t)
	require.True(t, bool(llmbridge_load_model(arg(t, writeModel(t, dir, "valid.gguf")))))
	blank := arg(t, " ")
	missing := arg(t, filepath.Join(dir, "nope", "absent.gguf"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			var errOut *cChar
			if out := llmbridge_predict_ex(blank, nil, &errOut); out != nil {
				llmbridge_free_string(out)
				t.Error("blank prompt produced text")
				return
			}
			if msg := goString(errOut); !strings.Contains(msg, "prompt") || strings.Contains(msg, "absent.gguf") {
				t.Errorf("predict got foreign message %q", msg)
			}
			llmbridge_free_string(errOut)
		}()
		go func() {
			defer wg.Done()
			var errOut *cChar
			if bool(llmbridge_load_model_ex(missing, &errOut)) {
				t.Error("missing model loaded")
				return
			}
			assert.Contains(t, goString(errOut), "absent.gguf")
			llmbridge_free_string(errOut)
		}()
	}
	wg.Wait()
}

func TestInitReplacesHost(t *testing.T) {
	dir := initMock(t)
	require.True(t, bool(llmbridge_load_model(arg(t, writeModel(t, dir, "valid.gguf")))))

	initMock(t)
	assert.False(t, bool(llmbridge_is_model_loaded()), "previous host was closed")
}

func TestInitBadConfig(t *testing.T) {
	lastErr.Store(nil)
	bad := filepath.Join(t.TempDir(), "llmbridge.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("engine: onnx\n"), 0o644))
	assert.Equal(t, int(ffi.InvalidArgument), int(llmbridge_init(arg(t, bad))))

	msg := llmbridge_last_error()
	require.NotNil(t, msg)
	assert.Contains(t, goString(msg), "onnx")
	llmbridge_free_string(msg)
}

func TestShutdownIsIdempotent(t *testing.T) {
	initMock(t)
	assert.Equal(t, int(ffi.OK), int(llmbridge_shutdown()))
	assert.Equal(t, int(ffi.OK), int(llmbridge_shutdown()))
	llmbridge_free_string(nil)
}
