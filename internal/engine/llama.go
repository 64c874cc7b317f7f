//go:build llama

package engine

import (
	"context"
	"errors"
	"strings"

	llama "github.com/go-skynet/go-llama.cpp"
)

// LlamaBuilt reports whether this binary was compiled with real llama support.
const LlamaBuilt = true

// llamaEngine loads GGUF models in-process through go-llama.cpp.
type llamaEngine struct{}

// NewLlama returns the in-process llama.cpp engine.
func NewLlama() Engine { return llamaEngine{} }

func (llamaEngine) Name() string { return KindLlama }

// llamaContext owns the loaded model.
type llamaContext struct {
	model   *llama.LLama
	threads int
}

func (llamaEngine) Load(path string, opts LoadOptions) (Context, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("model path is empty")
	}
	mo := []llama.ModelOption{
		llama.SetContext(zn(opts.ContextSize, 2048)),
		llama.SetMMap(opts.MMap),
	}
	if opts.GPULayers != 0 {
		mo = append(mo, llama.SetGPULayers(opts.GPULayers))
	}
	if opts.Seed != 0 {
		mo = append(mo, llama.SetModelSeed(opts.Seed))
	}
	m, err := llama.New(path, mo...)
	if err != nil {
		return nil, err
	}
	return &llamaContext{model: m, threads: opts.Threads}, nil
}

func (c *llamaContext) Generate(ctx context.Context, prompt string, params Params, onToken func(string) error) (Result, error) {
	if c.model == nil {
		return Result{}, ErrContextCorrupted
	}
	var (
		n     int
		cbErr error
	)
	c.model.SetTokenCallback(func(tok string) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		n++
		if err := onToken(tok); err != nil {
			cbErr = err
			return false
		}
		return true
	})

	threads := params.Threads
	if threads <= 0 {
		threads = c.threads
	}
	text, err := c.model.Predict(prompt, predictOptions(params, threads)...)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, err
	}
	if cbErr != nil {
		return Result{}, cbErr
	}
	return Result{Text: text, Tokens: n, FinishReason: "stop"}, nil
}

func (c *llamaContext) Close() error {
	if c.model != nil {
		c.model.Free()
		c.model = nil
	}
	return nil
}

func zn(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func zf(v, def float32) float32 {
	if v > 0 {
		return v
	}
	return def
}

// predictOptions converts Params into go-llama.cpp options. Greedy params
// keep temperature at zero so llama.cpp picks the argmax token.
func predictOptions(params Params, threads int) []llama.PredictOption {
	po := []llama.PredictOption{
		llama.SetTokens(max(1, params.MaxTokens)),
		llama.SetThreads(max(1, threads)),
		llama.SetTopP(zf(params.TopP, llama.DefaultOptions.TopP)),
		llama.SetTopK(zn(params.TopK, llama.DefaultOptions.TopK)),
		llama.SetPenalty(zf(params.RepeatPenalty, llama.DefaultOptions.Penalty)),
	}
	if params.Greedy() {
		po = append(po, llama.SetTemperature(0), llama.SetTopK(1))
	} else {
		po = append(po, llama.SetTemperature(zf(params.Temperature, llama.DefaultOptions.Temperature)))
	}
	if params.Seed != 0 {
		po = append(po, llama.SetSeed(params.Seed))
	}
	if len(params.Stop) > 0 {
		po = append(po, llama.SetStopWords(params.Stop...))
	}
	return po
}
