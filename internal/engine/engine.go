// Package engine defines the seam between the bridge and the inference
// runtime that actually holds model weights and produces tokens.
//
// Implementations:
//
//   - llama: in-process llama.cpp through go-llama.cpp. Enabled with
//     `-tags=llama`; without the tag a stub refuses every load with a
//     dependency-unavailable error instead of producing output.
//   - mock: deterministic generator used by tests and the dev harness.
//   - none: null engine; every load fails.
package engine

import (
	"context"
	"fmt"
	"strings"
)

// Engine loads model artifacts into usable contexts.
type Engine interface {
	// Name identifies the strategy ("llama", "mock", "none").
	Name() string
	// Load initializes the runtime and loads the artifact at path. Format
	// validation is the engine's job. On error no resources are retained.
	Load(path string, opts LoadOptions) (Context, error)
}

// Context is a loaded model. Implementations are not required to be safe for
// concurrent use; callers serialize access.
type Context interface {
	// Generate produces text for prompt. onToken is invoked for each token as
	// it is produced; returning an error from onToken stops generation.
	Generate(ctx context.Context, prompt string, params Params, onToken func(string) error) (Result, error)
	// Close releases the context and any backing memory.
	Close() error
}

// LoadOptions configures how an artifact is loaded.
type LoadOptions struct {
	ContextSize int
	Threads     int
	GPULayers   int
	MMap        bool
	Seed        int
}

// Params captures generation parameters passed to the engine.
type Params struct {
	Temperature   float32
	TopP          float32
	TopK          int
	MaxTokens     int
	Stop          []string
	Seed          int
	RepeatPenalty float32
	Threads       int
}

// Greedy reports whether params select deterministic decoding.
func (p Params) Greedy() bool { return p.Temperature <= 0 || p.TopK == 1 }

// Result summarizes a finished generation.
type Result struct {
	Text         string
	Tokens       int
	FinishReason string
}

// Kinds accepted by New.
const (
	KindLlama = "llama"
	KindMock  = "mock"
	KindNone  = "none"
)

// New returns the engine registered under kind.
func New(kind string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case KindLlama, "":
		return NewLlama(), nil
	case KindMock:
		return NewMock(), nil
	case KindNone:
		return Null{}, nil
	default:
		return nil, fmt.Errorf("unknown engine %q (want llama|mock|none)", kind)
	}
}
