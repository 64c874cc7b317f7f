// Package bridge turns a prompt into generated text using the model owned by
// a handle.Manager.
//
// Predict never fabricates output: with no model loaded it returns
// handle.ErrNotLoaded, and engine failures come back as *InferenceError.
// The returned string is always a fresh value that shares no memory with
// engine buffers.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"llmbridge/internal/engine"
	"llmbridge/internal/handle"
)

// Bridge runs inference against the currently loaded model.
type Bridge struct {
	handles *handle.Manager
	gen     GenerationConfig
	cache   *ResultCache
	log     zerolog.Logger
	seed    func() int

	compose    *composer
	composeErr error
}

// New constructs a Bridge. cache may be nil; it is only consulted in
// deterministic mode.
func New(handles *handle.Manager, cfg Config, cache *ResultCache, log *zerolog.Logger) *Bridge {
	b := &Bridge{
		handles: handles,
		gen:     cfg.Generation,
		log:     zerolog.Nop(),
		seed:    func() int { return int(rand.Int32N(math.MaxInt32-1)) + 1 },
	}
	if cfg.Generation.Mode != ModeStochastic {
		b.cache = cache
	}
	b.compose, b.composeErr = newComposer(cfg.Generation.Prompt)
	if log != nil {
		b.log = log.With().Str("component", "bridge").Logger()
	}
	return b
}

// Mode reports the configured generation mode.
func (b *Bridge) Mode() Mode {
	if b.gen.Mode == ModeStochastic {
		return ModeStochastic
	}
	return ModeDeterministic
}

// Predict generates text for prompt. ctx bounds only the wait for the model
// lock; once generation starts it runs to completion or failure. The prompt
// is validated both before and after the PromptTemplate wraps it.
func (b *Bridge) Predict(ctx context.Context, prompt string) (string, error) {
	if err := validatePrompt(prompt); err != nil {
		return "", err
	}
	if b.composeErr != nil {
		return "", b.composeErr
	}
	prompt, err := b.compose.compose(prompt)
	if err != nil {
		return "", err
	}
	if err := validatePrompt(prompt); err != nil {
		return "", err
	}
	params := b.gen.params(b.seed)

	var (
		out string
		ran bool
		id  string
	)
	start := time.Now()
	err = b.handles.With(ctx, func(h *handle.Handle) error {
		ran = true
		id = h.Info().ID
		if b.cache != nil {
			if s, ok := b.cache.Get(id, prompt); ok {
				out = s
				return nil
			}
		}
		text, err := generate(context.WithoutCancel(ctx), h.Context(), prompt, params)
		if err != nil {
			return err
		}
		out = text
		if b.cache != nil {
			b.cache.Put(id, prompt, text)
		}
		return nil
	})
	if err != nil {
		if !ran {
			return "", err
		}
		ie := &InferenceError{Err: err, Invalidated: errors.Is(err, engine.ErrContextCorrupted)}
		b.log.Error().Err(err).Str("handle", id).Bool("invalidated", ie.Invalidated).Msg("predict failed")
		return "", ie
	}
	b.log.Debug().Str("handle", id).Int("prompt_bytes", len(prompt)).Int("output_bytes", len(out)).Dur("dur", time.Since(start)).Msg("predict done")
	return out, nil
}

// generate runs one engine call, accumulating streamed tokens and converting
// a panic into an error so the host process survives engine faults.
func generate(ctx context.Context, ec engine.Context, prompt string, params engine.Params) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("engine panic: %v", r)
		}
	}()
	var b strings.Builder
	res, err := ec.Generate(ctx, prompt, params, func(tok string) error {
		b.WriteString(tok)
		return nil
	})
	if err != nil {
		return "", err
	}
	if res.Text != "" {
		// Engines may hand back views into their own buffers.
		return strings.Clone(res.Text), nil
	}
	return b.String(), nil
}

func validatePrompt(prompt string) error {
	switch {
	case strings.TrimSpace(prompt) == "":
		return fmt.Errorf("%w: empty", ErrInvalidPrompt)
	case strings.IndexByte(prompt, 0) >= 0:
		return fmt.Errorf("%w: contains NUL byte", ErrInvalidPrompt)
	case !utf8.ValidString(prompt):
		return fmt.Errorf("%w: not valid UTF-8", ErrInvalidPrompt)
	}
	return nil
}
