//go:build !llama

package engine

// This file provides a no-CGO stub for the llama engine. It is compiled when
// the 'llama' build tag is NOT set, keeping default builds and CI CGO-free.

// LlamaBuilt reports whether this binary was compiled with real llama support.
const LlamaBuilt = false

type llamaEngine struct{}

// NewLlama returns an engine that refuses to load models because llama.cpp
// support was not compiled in.
func NewLlama() Engine { return llamaEngine{} }

func (llamaEngine) Name() string { return KindLlama }

func (llamaEngine) Load(path string, opts LoadOptions) (Context, error) {
	return nil, ErrDependencyUnavailable("llama support not built (missing 'llama' build tag)")
}
