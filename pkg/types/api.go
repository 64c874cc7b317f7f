package types

// LoadRequest is the body of POST /load.
type LoadRequest struct {
	// Path to the model artifact. A leading '~' is expanded.
	// example: ~/models/llm/gemma-3-1b-it-q4_0.gguf
	Path string `json:"path" example:"~/models/llm/gemma-3-1b-it-q4_0.gguf"`
}

// LoadResponse is returned by POST /load.
type LoadResponse struct {
	// True when the model is loaded and usable.
	// example: true
	Loaded bool `json:"loaded" example:"true"`
	// The loaded model.
	Model *LoadedModel `json:"model,omitempty"`
}

// PredictRequest is the body of POST /predict.
type PredictRequest struct {
	// Prompt text. Must be non-blank UTF-8 without NUL bytes.
	// example: Tell me about today
	Prompt string `json:"prompt" example:"Tell me about today"`
}

// PredictResponse is returned by POST /predict.
type PredictResponse struct {
	// Generated text.
	Text string `json:"text"`
	// Wall time spent in the bridge, in milliseconds.
	// example: 850
	DurationMS int64 `json:"duration_ms" example:"850"`
}

// ModelsResponse wraps the list of models returned by GET /models.
type ModelsResponse struct {
	// List of available models.
	Models []Model `json:"models"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: no model loaded
	Error string `json:"error" example:"no model loaded"`
	// HTTP status code.
	// example: 409
	Code int `json:"code" example:"409"`
	// Error class: load_failure, not_loaded, inference_failure, invalid_argument, busy, dependency_unavailable, internal.
	// example: not_loaded
	Kind string `json:"kind,omitempty" example:"not_loaded"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Lifecycle state: loaded or unloaded.
	// example: loaded
	State string `json:"state" example:"loaded"`
	// The loaded model, if any.
	Model *LoadedModel `json:"model,omitempty"`
	// Configured engine strategy.
	// example: llama
	Engine string `json:"engine" example:"llama"`
	// Whether this binary was built with llama.cpp support.
	LlamaBuilt bool `json:"llama_built"`
	// Generation mode: deterministic or stochastic.
	// example: deterministic
	Mode string `json:"mode" example:"deterministic"`
	// Successful loads since start.
	LoadsTotal uint64 `json:"loads_total"`
	// Failed loads since start.
	LoadFailuresTotal uint64 `json:"load_failures_total"`
	// Successful predictions since start.
	PredictionsTotal uint64 `json:"predictions_total"`
	// Failed predictions since start.
	PredictionFailuresTotal uint64 `json:"prediction_failures_total"`
	// Last error observed by the bridge (if any).
	LastError string `json:"last_error,omitempty"`
	// Uptime in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
