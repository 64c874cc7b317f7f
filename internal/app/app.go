// Package app wires configuration, the engine, the handle manager and the
// inference bridge into one object. The CLI, the HTTP harness and the C
// boundary all drive the bridge through an App.
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"

	"llmbridge/internal/bridge"
	"llmbridge/internal/config"
	"llmbridge/internal/engine"
	"llmbridge/internal/handle"
	"llmbridge/internal/registry"
	"llmbridge/pkg/types"
)

// Option configures New.
type Option func(*options)

type options struct {
	logger     *zerolog.Logger
	registerer prometheus.Registerer
	engine     engine.Engine
	publishers []handle.EventPublisher
}

// WithLogger sets the logger shared by every component.
func WithLogger(l zerolog.Logger) Option { return func(o *options) { o.logger = &l } }

// WithRegisterer exports the bridge metrics to reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithEngine overrides the engine selected by the config.
func WithEngine(e engine.Engine) Option { return func(o *options) { o.engine = e } }

// WithPublisher adds a lifecycle event subscriber.
func WithPublisher(p handle.EventPublisher) Option {
	return func(o *options) { o.publishers = append(o.publishers, p) }
}

// App is one independent bridge instance.
type App struct {
	cfg     config.Config
	log     zerolog.Logger
	handles *handle.Manager
	bridge  *bridge.Bridge
	cache   *bridge.ResultCache
	metrics *metrics
	started time.Time

	loads              atomic.Uint64
	loadFailures       atomic.Uint64
	predictions        atomic.Uint64
	predictionFailures atomic.Uint64
	lastErr            atomic.Pointer[string]

	closeOnce sync.Once
	closeErr  error
}

// New validates cfg and builds an App with no model loaded.
func New(cfg config.Config, oo ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	var opts options
	for _, o := range oo {
		o(&opts)
	}
	a := &App{cfg: cfg, log: zerolog.Nop(), started: time.Now(), metrics: newMetrics()}
	if opts.logger != nil {
		a.log = *opts.logger
	}
	eng := opts.engine
	if eng == nil {
		e, err := engine.New(cfg.Engine)
		if err != nil {
			return nil, err
		}
		eng = e
	}
	if opts.registerer != nil {
		if err := a.metrics.register(opts.registerer); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}

	bc := cfg.BridgeConfig()
	if bc.Generation.Mode == bridge.ModeDeterministic {
		a.cache = bridge.NewResultCache(bc.CacheTTL, bc.CacheCapacity)
	}
	pubs := handle.MultiPublisher{a.metrics, eventLogger{a.log}}
	if a.cache != nil {
		pubs = append(pubs, a.cache)
	}
	pubs = append(pubs, opts.publishers...)

	a.handles = handle.New(handle.Config{
		Engine:      eng,
		LoadOptions: cfg.LoadOptions(),
		LockTimeout: cfg.LockWait(),
		Publisher:   pubs,
		Logger:      &a.log,
	})
	a.bridge = bridge.New(a.handles, bc, a.cache, &a.log)
	return a, nil
}

// Preload loads the configured model_path, if any.
func (a *App) Preload(ctx context.Context) error {
	if a.cfg.ModelPath == "" {
		return nil
	}
	_, err := a.LoadModel(ctx, a.cfg.ModelPath)
	return err
}

// LoadModel loads ref, replacing the current model. ref is either the ID or
// name of a model in models_dir or a filesystem path.
func (a *App) LoadModel(ctx context.Context, ref string) (types.LoadedModel, error) {
	info, err := a.handles.Load(ctx, a.resolve(ref))
	if err != nil {
		a.loadFailures.Add(1)
		a.metrics.loads.WithLabelValues("error").Inc()
		a.setLastError(err)
		return types.LoadedModel{}, err
	}
	a.loads.Add(1)
	a.metrics.loads.WithLabelValues("ok").Inc()
	return loadedModel(info), nil
}

func (a *App) resolve(ref string) string {
	if a.cfg.ModelsDir == "" || ref == "" || strings.ContainsRune(ref, filepath.Separator) {
		return ref
	}
	models, err := registry.LoadDir(a.cfg.ModelsDir)
	if err != nil {
		return ref
	}
	return registry.Resolve(models, ref)
}

// UnloadModel releases the current model. It is a no-op when none is loaded.
func (a *App) UnloadModel(ctx context.Context) error {
	if err := a.handles.Unload(ctx); err != nil {
		a.setLastError(err)
		return err
	}
	return nil
}

// IsModelLoaded never blocks.
func (a *App) IsModelLoaded() bool { return a.handles.IsLoaded() }

// Ready reports whether predictions can be served.
func (a *App) Ready() bool { return a.handles.IsLoaded() }

// Predict generates text for prompt with the loaded model.
func (a *App) Predict(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	out, err := a.bridge.Predict(ctx, prompt)
	if err != nil {
		a.predictionFailures.Add(1)
		a.metrics.predictions.WithLabelValues(Classify(err)).Inc()
		a.setLastError(err)
		return "", err
	}
	a.predictions.Add(1)
	a.metrics.predictions.WithLabelValues("ok").Inc()
	a.metrics.predictDur.Observe(time.Since(start).Seconds())
	return out, nil
}

// ListModels returns the artifacts in models_dir. Scan errors yield an
// empty list.
func (a *App) ListModels() []types.Model {
	if a.cfg.ModelsDir == "" {
		return []types.Model{}
	}
	models, err := registry.LoadDir(a.cfg.ModelsDir)
	if err != nil {
		a.log.Warn().Err(err).Str("dir", a.cfg.ModelsDir).Msg("scan models dir")
		return []types.Model{}
	}
	if models == nil {
		models = []types.Model{}
	}
	return models
}

// Status reports state, counters and the current model.
func (a *App) Status() types.StatusResponse {
	now := time.Now()
	s := types.StatusResponse{
		State:                   string(a.handles.State()),
		Engine:                  a.handles.EngineName(),
		LlamaBuilt:              engine.LlamaBuilt,
		Mode:                    string(a.bridge.Mode()),
		LoadsTotal:              a.loads.Load(),
		LoadFailuresTotal:       a.loadFailures.Load(),
		PredictionsTotal:        a.predictions.Load(),
		PredictionFailuresTotal: a.predictionFailures.Load(),
		LastError:               a.LastError(),
		UptimeSeconds:           int64(now.Sub(a.started).Seconds()),
		ServerTimeUnix:          now.Unix(),
	}
	if info, ok := a.handles.Current(); ok {
		m := loadedModel(info)
		s.Model = &m
	}
	return s
}

// LastError returns the message of the most recent failed operation.
func (a *App) LastError() string {
	if p := a.lastErr.Load(); p != nil {
		return *p
	}
	return ""
}

func (a *App) setLastError(err error) {
	msg := err.Error()
	a.lastErr.Store(&msg)
}

// Close unloads the model and releases background resources. Subsequent
// calls return the first result.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		a.cache.Close()
		a.closeErr = multierr.Combine(a.handles.Close(), a.metrics.unregister())
	})
	return a.closeErr
}

func loadedModel(info handle.Info) types.LoadedModel {
	return types.LoadedModel{
		HandleID:     info.ID,
		Path:         info.Path,
		SizeBytes:    info.SizeBytes,
		Engine:       info.Engine,
		LoadedAtUnix: info.LoadedAt.Unix(),
	}
}

// eventLogger records lifecycle events at debug level.
type eventLogger struct{ log zerolog.Logger }

func (l eventLogger) Publish(e handle.Event) {
	ev := l.log.Debug().Str("event", e.Name)
	if e.HandleID != "" {
		ev = ev.Str("handle", e.HandleID)
	}
	if e.Path != "" {
		ev = ev.Str("path", e.Path)
	}
	if len(e.Fields) > 0 {
		ev = ev.Fields(e.Fields)
	}
	ev.Msg("handle event")
}
