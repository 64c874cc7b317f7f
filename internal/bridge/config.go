package bridge

import (
	"fmt"
	"strings"
	"time"

	"llmbridge/internal/engine"
)

// Mode selects between reproducible and sampled generation.
type Mode string

const (
	ModeDeterministic Mode = "deterministic"
	ModeStochastic    Mode = "stochastic"
)

// Defaults applied when corresponding GenerationConfig fields are unset.
const (
	defaultSeed        = 42
	defaultMaxTokens   = 256
	defaultTemperature = 0.8
	defaultTopP        = 0.95
	defaultTopK        = 40
)

// ParseMode maps a config string to a Mode. Empty selects deterministic.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeDeterministic:
		return ModeDeterministic, nil
	case ModeStochastic:
		return ModeStochastic, nil
	default:
		return "", fmt.Errorf("unknown generation mode %q (want deterministic|stochastic)", s)
	}
}

// GenerationConfig controls decoding. Deterministic mode always decodes
// greedily with a fixed seed; the sampling fields apply to stochastic mode.
type GenerationConfig struct {
	Mode          Mode
	Seed          int
	Temperature   float32
	TopP          float32
	TopK          int
	MaxTokens     int
	Stop          []string
	RepeatPenalty float32
	Threads       int
	// Prompt wraps caller prompts before generation.
	Prompt PromptTemplate
}

// Config configures a Bridge.
type Config struct {
	Generation GenerationConfig
	// CacheTTL enables the deterministic result cache when positive.
	CacheTTL time.Duration
	// CacheCapacity bounds the number of cached results (0 = 256).
	CacheCapacity uint64
}

// params builds engine parameters for one call. seedFn supplies a fresh
// seed for stochastic calls that did not pin one.
func (g GenerationConfig) params(seedFn func() int) engine.Params {
	p := engine.Params{
		MaxTokens:     g.MaxTokens,
		Stop:          append([]string(nil), g.Stop...),
		RepeatPenalty: g.RepeatPenalty,
		Threads:       g.Threads,
	}
	if p.MaxTokens <= 0 {
		p.MaxTokens = defaultMaxTokens
	}
	if g.Mode != ModeStochastic {
		p.Temperature = 0
		p.TopK = 1
		p.TopP = 1
		p.Seed = g.Seed
		if p.Seed == 0 {
			p.Seed = defaultSeed
		}
		return p
	}
	p.Temperature = g.Temperature
	if p.Temperature <= 0 {
		p.Temperature = defaultTemperature
	}
	p.TopP = g.TopP
	if p.TopP <= 0 {
		p.TopP = defaultTopP
	}
	p.TopK = g.TopK
	if p.TopK <= 0 {
		p.TopK = defaultTopK
	}
	p.Seed = g.Seed
	if p.Seed == 0 {
		p.Seed = seedFn()
	}
	return p
}
