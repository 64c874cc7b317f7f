// Package httpapi exposes the bridge over HTTP for development, device-less
// testing and scripting. It is a harness around the same App the mobile
// boundary uses.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"llmbridge/internal/app"
	"llmbridge/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	ListModels() []types.Model
	Status() types.StatusResponse
	Ready() bool
	LoadModel(ctx context.Context, ref string) (types.LoadedModel, error)
	UnloadModel(ctx context.Context) error
	Predict(ctx context.Context, prompt string) (string, error)
}

type server struct {
	svc Service
}

// NewMux routes the harness endpoints to svc.
func NewMux(svc Service) http.Handler {
	s := &server{svc: svc}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(middleware.Compress(5))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}

	r.Get("/models", s.handleModels)
	r.Get("/status", s.handleStatus)
	r.Post("/load", s.handleLoad)
	r.Post("/unload", s.handleUnload)
	r.Post("/predict", s.handlePredict)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("no model loaded"))
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

// handleModels godoc
// @Summary      List model artifacts
// @Description  Lists *.gguf files found in the configured models directory.
// @Tags         models
// @Produce      json
// @Success      200  {object}  types.ModelsResponse
// @Router       /models [get]
func (s *server) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, types.ModelsResponse{Models: s.svc.ListModels()})
}

// handleStatus godoc
// @Summary      Bridge status
// @Tags         status
// @Produce      json
// @Success      200  {object}  types.StatusResponse
// @Router       /status [get]
func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.svc.Status())
}

// handleLoad godoc
// @Summary      Load a model
// @Description  Loads the artifact at path (or a models_dir ID), replacing any loaded model.
// @Tags         models
// @Accept       json
// @Produce      json
// @Param        request  body      types.LoadRequest  true  "model to load"
// @Success      200      {object}  types.LoadResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      422      {object}  types.ErrorResponse
// @Failure      429      {object}  types.ErrorResponse
// @Failure      503      {object}  types.ErrorResponse
// @Router       /load [post]
func (s *server) handleLoad(w http.ResponseWriter, r *http.Request) {
	var req types.LoadRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		writeJSONError(w, http.StatusBadRequest, "path is required", app.KindInvalidArgument)
		return
	}
	ctx, cancel := requestContext(r.Context())
	defer cancel()
	m, err := s.svc.LoadModel(ctx, req.Path)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, types.LoadResponse{Loaded: true, Model: &m})
}

// handleUnload godoc
// @Summary      Unload the model
// @Description  Releases the loaded model. Unloading when nothing is loaded succeeds.
// @Tags         models
// @Produce      json
// @Success      200  {object}  types.StatusResponse
// @Failure      429  {object}  types.ErrorResponse
// @Router       /unload [post]
func (s *server) handleUnload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r.Context())
	defer cancel()
	if err := s.svc.UnloadModel(ctx); err != nil {
		if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, s.svc.Status())
}

// handlePredict godoc
// @Summary      Generate text
// @Description  Runs the loaded model on the prompt and returns the full text.
// @Tags         inference
// @Accept       json
// @Produce      json
// @Param        request  body      types.PredictRequest  true  "prompt"
// @Success      200      {object}  types.PredictResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      409      {object}  types.ErrorResponse
// @Failure      429      {object}  types.ErrorResponse
// @Failure      500      {object}  types.ErrorResponse
// @Router       /predict [post]
func (s *server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req types.PredictRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeJSONError(w, http.StatusBadRequest, "prompt is required", app.KindInvalidArgument)
		return
	}
	ctx, cancel := requestContext(r.Context())
	defer cancel()
	start := time.Now()
	text, err := s.svc.Predict(ctx, req.Prompt)
	if err != nil {
		// Client went away or the server is shutting down.
		if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, types.PredictResponse{Text: text, DurationMS: time.Since(start).Milliseconds()})
}

// decodeJSON enforces the content type and body limit, then decodes into v.
// It writes the error response and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", app.KindInvalidArgument)
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// Oversized bodies also land here; report 400 without size details.
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body", app.KindInvalidArgument)
		return false
	}
	return true
}
