package app

import (
	"llmbridge/internal/common/fsutil"
	"llmbridge/internal/engine"
)

// SanityReport describes runtime checks for the configured engine and paths.
type SanityReport struct {
	Engine         string `json:"engine"`
	LlamaBuilt     bool   `json:"llama_built"`
	ModelsDir      string `json:"models_dir,omitempty"`
	ModelsDirFound bool   `json:"models_dir_found"`
	ModelPath      string `json:"model_path,omitempty"`
	ModelFound     bool   `json:"model_found"`
	Error          string `json:"error,omitempty"`
}

// SanityCheck validates that the engine runtime and configured paths are
// usable. It does not mutate state and is safe to call at any time.
func (a *App) SanityCheck() SanityReport {
	r := SanityReport{Engine: a.cfg.Engine, LlamaBuilt: engine.LlamaBuilt}
	if a.cfg.ModelsDir != "" {
		if dir, err := fsutil.ExpandHome(a.cfg.ModelsDir); err == nil {
			r.ModelsDir = dir
			r.ModelsDirFound = fsutil.PathExists(dir)
		}
	}
	if a.cfg.ModelPath != "" {
		abs, _, err := fsutil.ResolveFile(a.cfg.ModelPath)
		if err == nil {
			r.ModelPath = abs
			r.ModelFound = true
		} else {
			r.ModelPath = a.cfg.ModelPath
			r.Error = err.Error()
		}
	}
	if (a.cfg.Engine == "" || a.cfg.Engine == engine.KindLlama) && !engine.LlamaBuilt {
		r.Error = "built without llama support (rebuild with -tags=llama)"
	}
	return r
}
