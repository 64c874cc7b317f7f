package types

// Model represents a model artifact found on disk.
type Model struct {
	// Stable identifier for the model (the file name).
	// example: gemma-3-1b-it-q4_0.gguf
	ID string `json:"id" example:"gemma-3-1b-it-q4_0.gguf"`
	// Human-friendly name (file name without extension).
	// example: gemma-3-1b-it-q4_0
	Name string `json:"name" example:"gemma-3-1b-it-q4_0"`
	// Absolute path to the model file on disk.
	// example: /home/user/models/llm/gemma-3-1b-it-q4_0.gguf
	Path string `json:"path" example:"/home/user/models/llm/gemma-3-1b-it-q4_0.gguf"`
	// Size of the artifact in bytes.
	// example: 720000000
	SizeBytes int64 `json:"size_bytes" example:"720000000"`
}

// LoadedModel describes the model currently held by the bridge.
type LoadedModel struct {
	// Handle identifier, new for every successful load.
	// example: 3f0e5c1e-8f57-4c39-9a55-0e2c1b7b8a10
	HandleID string `json:"handle_id" example:"3f0e5c1e-8f57-4c39-9a55-0e2c1b7b8a10"`
	// Absolute path the model was loaded from.
	Path string `json:"path"`
	// Size of the artifact in bytes.
	SizeBytes int64 `json:"size_bytes"`
	// Engine that holds the model (llama, mock).
	// example: llama
	Engine string `json:"engine" example:"llama"`
	// Load time in unix seconds.
	// example: 1700000000
	LoadedAtUnix int64 `json:"loaded_at_unix" example:"1700000000"`
}
