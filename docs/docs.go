// Package docs registers the llmbridge OpenAPI document with swag. The
// template mirrors the annotations in internal/httpapi and cmd/llmbridge.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "llmbridge maintainers"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/models": {
            "get": {
                "description": "Lists *.gguf files found in the configured models directory.",
                "produces": ["application/json"],
                "tags": ["models"],
                "summary": "List model artifacts",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelsResponse"}}
                }
            }
        },
        "/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["status"],
                "summary": "Bridge status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}
                }
            }
        },
        "/load": {
            "post": {
                "description": "Loads the artifact at path (or a models_dir ID), replacing any loaded model.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["models"],
                "summary": "Load a model",
                "parameters": [
                    {"description": "model to load", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.LoadRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.LoadResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/unload": {
            "post": {
                "description": "Releases the loaded model. Unloading when nothing is loaded succeeds.",
                "produces": ["application/json"],
                "tags": ["models"],
                "summary": "Unload the model",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/predict": {
            "post": {
                "description": "Runs the loaded model on the prompt and returns the full text.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["inference"],
                "summary": "Generate text",
                "parameters": [
                    {"description": "prompt", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.PredictRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.PredictResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.Model": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "example": "gemma-3-1b-it-q4_0.gguf"},
                "name": {"type": "string", "example": "gemma-3-1b-it-q4_0"},
                "path": {"type": "string"},
                "size_bytes": {"type": "integer", "example": 720000000}
            }
        },
        "types.LoadedModel": {
            "type": "object",
            "properties": {
                "handle_id": {"type": "string"},
                "path": {"type": "string"},
                "size_bytes": {"type": "integer"},
                "engine": {"type": "string", "example": "llama"},
                "loaded_at_unix": {"type": "integer"}
            }
        },
        "types.ModelsResponse": {
            "type": "object",
            "properties": {
                "models": {"type": "array", "items": {"$ref": "#/definitions/types.Model"}}
            }
        },
        "types.LoadRequest": {
            "type": "object",
            "properties": {
                "path": {"type": "string", "example": "~/models/llm/gemma-3-1b-it-q4_0.gguf"}
            }
        },
        "types.LoadResponse": {
            "type": "object",
            "properties": {
                "loaded": {"type": "boolean", "example": true},
                "model": {"$ref": "#/definitions/types.LoadedModel"}
            }
        },
        "types.PredictRequest": {
            "type": "object",
            "properties": {
                "prompt": {"type": "string", "example": "Tell me about today"}
            }
        },
        "types.PredictResponse": {
            "type": "object",
            "properties": {
                "text": {"type": "string"},
                "duration_ms": {"type": "integer", "example": 850}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "no model loaded"},
                "code": {"type": "integer", "example": 409},
                "kind": {"type": "string", "example": "not_loaded"}
            }
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "state": {"type": "string", "example": "loaded"},
                "model": {"$ref": "#/definitions/types.LoadedModel"},
                "engine": {"type": "string", "example": "llama"},
                "llama_built": {"type": "boolean"},
                "mode": {"type": "string", "example": "deterministic"},
                "loads_total": {"type": "integer"},
                "load_failures_total": {"type": "integer"},
                "predictions_total": {"type": "integer"},
                "prediction_failures_total": {"type": "integer"},
                "last_error": {"type": "string"},
                "uptime_seconds": {"type": "integer"},
                "server_time_unix": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "llmbridge API",
	Description:      "Development harness for the on-device LLM bridge: model lifecycle and inference.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
