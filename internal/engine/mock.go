package engine

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
)

// ggufMagic is the 4-byte header every GGUF artifact starts with.
var ggufMagic = []byte("GGUF")

const (
	mockDefaultTokens = 16
	mockDefaultCtx    = 2048
)

var mockVocab = []string{
	"the", "quiet", "morning", "light", "settles", "over", "a", "calm",
	"sea", "and", "every", "small", "wave", "carries", "something", "gentle",
	"today", "you", "noticed", "how", "breath", "slows", "when", "thoughts",
	"rest", "softly", "like", "leaves", "on", "still", "water", "again",
}

// mockEngine is an explicit, in-process stand-in for a real runtime. It
// validates GGUF headers like a real engine would and produces output that
// is a pure function of (model contents, prompt, seed) under greedy params.
type mockEngine struct{}

// NewMock returns the deterministic mock engine.
func NewMock() Engine { return mockEngine{} }

func (mockEngine) Name() string { return KindMock }

type mockContext struct {
	fingerprint [sha256.Size]byte
	ctxSize     int
	closed      bool
}

func (mockEngine) Load(path string, opts LoadOptions) (Context, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	head := make([]byte, len(ggufMagic))
	if _, err := io.ReadFull(f, head); err != nil || !bytes.Equal(head, ggufMagic) {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupportedFormat)
	}
	h := sha256.New()
	h.Write(head)
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	c := &mockContext{ctxSize: opts.ContextSize}
	copy(c.fingerprint[:], h.Sum(nil))
	if c.ctxSize <= 0 {
		c.ctxSize = mockDefaultCtx
	}
	return c, nil
}

func (c *mockContext) Generate(ctx context.Context, prompt string, params Params, onToken func(string) error) (Result, error) {
	if c.closed {
		return Result{}, ErrContextCorrupted
	}
	if n := len(strings.Fields(prompt)); n > c.ctxSize {
		return Result{}, fmt.Errorf("prompt has %d tokens, context holds %d: %w", n, c.ctxSize, ErrContextLengthExceeded)
	}
	limit := params.MaxTokens
	if limit <= 0 {
		limit = mockDefaultTokens
	}
	rng := rand.New(rand.NewPCG(c.seed(prompt, params)))

	var b strings.Builder
	res := Result{FinishReason: "length"}
	for i := 0; i < limit; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		tok := mockVocab[rng.IntN(len(mockVocab))]
		if i > 0 {
			tok = " " + tok
		}
		if stopAt(b.String()+tok, params.Stop) {
			res.FinishReason = "stop"
			break
		}
		if err := onToken(tok); err != nil {
			return Result{}, err
		}
		b.WriteString(tok)
		res.Tokens++
	}
	res.Text = b.String()
	return res, nil
}

// seed mixes the model fingerprint, prompt and sampling seed. Greedy params
// ignore temperature so identical inputs always give identical streams.
func (c *mockContext) seed(prompt string, params Params) (uint64, uint64) {
	h := sha256.New()
	h.Write(c.fingerprint[:])
	h.Write([]byte(prompt))
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(params.Seed))
	h.Write(buf[:])
	if !params.Greedy() {
		binary.LittleEndian.PutUint64(buf[:], uint64(params.Temperature*1000))
		h.Write(buf[:])
	}
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum[:8]), binary.LittleEndian.Uint64(sum[8:16])
}

func stopAt(text string, stop []string) bool {
	for _, s := range stop {
		if s != "" && strings.Contains(text, s) {
			return true
		}
	}
	return false
}

func (c *mockContext) Close() error {
	c.closed = true
	return nil
}
