package config

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"llmbridge/internal/bridge"
	"llmbridge/internal/engine"
	"llmbridge/internal/logging"
)

// Generation mirrors bridge.GenerationConfig in file form.
type Generation struct {
	Mode          string   `json:"mode" yaml:"mode" toml:"mode"`
	Seed          int      `json:"seed" yaml:"seed" toml:"seed"`
	Temperature   float32  `json:"temperature" yaml:"temperature" toml:"temperature"`
	TopP          float32  `json:"top_p" yaml:"top_p" toml:"top_p"`
	TopK          int      `json:"top_k" yaml:"top_k" toml:"top_k"`
	MaxTokens     int      `json:"max_tokens" yaml:"max_tokens" toml:"max_tokens"`
	Stop          []string `json:"stop" yaml:"stop" toml:"stop"`
	RepeatPenalty float32  `json:"repeat_penalty" yaml:"repeat_penalty" toml:"repeat_penalty"`
	// System, Template and Vars wrap every prompt; see bridge.PromptTemplate.
	System   string            `json:"system" yaml:"system" toml:"system"`
	Template string            `json:"template" yaml:"template" toml:"template"`
	Vars     map[string]string `json:"vars" yaml:"vars" toml:"vars"`
}

// Config holds runtime parameters for the bridge and its dev surfaces.
// Zero values mean "unspecified" and are replaced by Default values in Merge.
type Config struct {
	Addr        string     `json:"addr" yaml:"addr" toml:"addr"`
	ModelsDir   string     `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	ModelPath   string     `json:"model_path" yaml:"model_path" toml:"model_path"`
	Engine      string     `json:"engine" yaml:"engine" toml:"engine"`
	ContextSize int        `json:"context_size" yaml:"context_size" toml:"context_size"`
	Threads     int        `json:"threads" yaml:"threads" toml:"threads"`
	GPULayers   int        `json:"gpu_layers" yaml:"gpu_layers" toml:"gpu_layers"`
	MMap        *bool      `json:"mmap,omitempty" yaml:"mmap,omitempty" toml:"mmap,omitempty"`
	LockTimeout *Duration  `json:"lock_timeout,omitempty" yaml:"lock_timeout,omitempty" toml:"lock_timeout,omitempty"`
	CacheTTL    Duration   `json:"cache_ttl" yaml:"cache_ttl" toml:"cache_ttl"`
	LogLevel    string     `json:"log_level" yaml:"log_level" toml:"log_level"`
	CORSOrigins []string   `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	Generation  Generation `json:"generation" yaml:"generation" toml:"generation"`
}

// Duration is a time.Duration that reads "30s"-style strings in every format.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) parse(s string) error {
	if strings.TrimSpace(s) == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) { return []byte(time.Duration(d).String()), nil }

func (d *Duration) UnmarshalText(b []byte) error { return d.parse(string(b)) }

// Default returns the configuration used when neither file nor flags set a value.
func Default() Config {
	mmap := true
	lockTimeout := Duration(2 * time.Minute)
	return Config{
		Addr:        "127.0.0.1:8080",
		ModelsDir:   "~/models/llm",
		Engine:      engine.KindLlama,
		ContextSize: 2048,
		MMap:        &mmap,
		LockTimeout: &lockTimeout,
		LogLevel:    "info",
		Generation: Generation{
			Mode:      string(bridge.ModeDeterministic),
			MaxTokens: 256,
		},
	}
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// LoadOrDefault loads path (when set) over Default and validates the result.
func LoadOrDefault(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}
	fc, err := Load(path)
	if err != nil {
		return cfg, err
	}
	cfg = Merge(cfg, fc)
	return cfg, cfg.Validate()
}

// Merge overlays the non-zero fields of over onto base.
func Merge(base, over Config) Config {
	out := base
	setStr(&out.Addr, over.Addr)
	setStr(&out.ModelsDir, over.ModelsDir)
	setStr(&out.ModelPath, over.ModelPath)
	setStr(&out.Engine, over.Engine)
	setStr(&out.LogLevel, over.LogLevel)
	setInt(&out.ContextSize, over.ContextSize)
	setInt(&out.Threads, over.Threads)
	setInt(&out.GPULayers, over.GPULayers)
	if over.MMap != nil {
		v := *over.MMap
		out.MMap = &v
	}
	if over.LockTimeout != nil {
		v := *over.LockTimeout
		out.LockTimeout = &v
	}
	if over.CacheTTL != 0 {
		out.CacheTTL = over.CacheTTL
	}
	if len(over.CORSOrigins) > 0 {
		out.CORSOrigins = append([]string(nil), over.CORSOrigins...)
	}
	g := over.Generation
	setStr(&out.Generation.Mode, g.Mode)
	setInt(&out.Generation.Seed, g.Seed)
	setInt(&out.Generation.TopK, g.TopK)
	setInt(&out.Generation.MaxTokens, g.MaxTokens)
	if g.Temperature != 0 {
		out.Generation.Temperature = g.Temperature
	}
	if g.TopP != 0 {
		out.Generation.TopP = g.TopP
	}
	if g.RepeatPenalty != 0 {
		out.Generation.RepeatPenalty = g.RepeatPenalty
	}
	if len(g.Stop) > 0 {
		out.Generation.Stop = append([]string(nil), g.Stop...)
	}
	setStr(&out.Generation.System, g.System)
	setStr(&out.Generation.Template, g.Template)
	if len(g.Vars) > 0 {
		out.Generation.Vars = maps.Clone(g.Vars)
	}
	return out
}

func setStr(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

// Validate checks enum fields and numeric ranges.
func (c Config) Validate() error {
	if _, err := engine.New(c.Engine); err != nil {
		return err
	}
	if _, err := bridge.ParseMode(c.Generation.Mode); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if pt := c.promptTemplate(); pt.Enabled() {
		if _, err := pt.Compile(); err != nil {
			return err
		}
	}
	if c.ContextSize < 0 || c.Threads < 0 || c.Generation.MaxTokens < 0 {
		return fmt.Errorf("context_size, threads and max_tokens must not be negative")
	}
	if c.Generation.Temperature < 0 || c.Generation.TopP < 0 || c.Generation.TopP > 1 {
		return fmt.Errorf("temperature must be >= 0 and top_p within [0,1]")
	}
	if c.LockWait() < 0 || c.CacheTTL < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	return nil
}

// LockWait is the bound on waiting for the model lock. An explicit or
// missing lock_timeout of 0 waits until the caller's context is done.
func (c Config) LockWait() time.Duration {
	if c.LockTimeout == nil {
		return 0
	}
	return c.LockTimeout.Std()
}

// LoadOptions maps the engine fields.
func (c Config) LoadOptions() engine.LoadOptions {
	opts := engine.LoadOptions{
		ContextSize: c.ContextSize,
		Threads:     c.Threads,
		GPULayers:   c.GPULayers,
		MMap:        true,
		Seed:        c.Generation.Seed,
	}
	if c.MMap != nil {
		opts.MMap = *c.MMap
	}
	return opts
}

// BridgeConfig maps the generation fields. Validate must have passed.
func (c Config) BridgeConfig() bridge.Config {
	mode, _ := bridge.ParseMode(c.Generation.Mode)
	g := c.Generation
	return bridge.Config{
		Generation: bridge.GenerationConfig{
			Mode:          mode,
			Seed:          g.Seed,
			Temperature:   g.Temperature,
			TopP:          g.TopP,
			TopK:          g.TopK,
			MaxTokens:     g.MaxTokens,
			Stop:          append([]string(nil), g.Stop...),
			RepeatPenalty: g.RepeatPenalty,
			Threads:       c.Threads,
			Prompt:        c.promptTemplate(),
		},
		CacheTTL: c.CacheTTL.Std(),
	}
}

func (c Config) promptTemplate() bridge.PromptTemplate {
	g := c.Generation
	return bridge.PromptTemplate{System: g.System, Template: g.Template, Vars: maps.Clone(g.Vars)}
}
