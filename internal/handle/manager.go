// Package handle owns the lifecycle of the single loaded model: load,
// replace, unload, and exclusive access for inference.
//
// Every operation that touches the engine context runs behind one exclusive
// lock. IsLoaded and Current read an atomic snapshot instead, so status
// queries never wait behind a long generation.
package handle

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"llmbridge/internal/common/fsutil"
	"llmbridge/internal/engine"
)

// State is the externally visible lifecycle state.
type State string

const (
	StateUnloaded State = "unloaded"
	StateLoaded   State = "loaded"
)

// Config encapsulates all tunables for Manager construction.
type Config struct {
	// Engine used to load artifacts. Nil selects engine.Null.
	Engine      engine.Engine
	LoadOptions engine.LoadOptions
	// LockTimeout bounds how long an operation waits for the exclusive lock.
	// Zero waits until the caller's context is done.
	LockTimeout time.Duration
	Publisher   EventPublisher
	Logger      *zerolog.Logger
}

// Info is a read-only view of a loaded handle.
type Info struct {
	ID        string
	Path      string
	SizeBytes int64
	Engine    string
	LoadedAt  time.Time
}

// Handle is the live model. It is only reachable inside With, while the
// exclusive lock is held.
type Handle struct {
	info Info
	ctx  engine.Context
}

// Info returns a copy of the handle metadata.
func (h *Handle) Info() Info { return h.info }

// Context returns the engine context backing the handle.
func (h *Handle) Context() engine.Context { return h.ctx }

// Manager owns at most one loaded Handle.
type Manager struct {
	eng         engine.Engine
	opts        engine.LoadOptions
	lockTimeout time.Duration
	publisher   EventPublisher
	log         zerolog.Logger

	slot chan struct{} // size 1: exclusive access to cur
	cur  *Handle
	snap atomic.Pointer[Info]
}

// New constructs a Manager in the Unloaded state.
func New(cfg Config) *Manager {
	m := &Manager{
		eng:         cfg.Engine,
		opts:        cfg.LoadOptions,
		lockTimeout: cfg.LockTimeout,
		publisher:   cfg.Publisher,
		log:         zerolog.Nop(),
		slot:        make(chan struct{}, 1),
	}
	if m.eng == nil {
		m.eng = engine.Null{}
	}
	if m.publisher == nil {
		m.publisher = noopPublisher{}
	}
	if cfg.Logger != nil {
		m.log = cfg.Logger.With().Str("component", "handle").Logger()
	}
	return m
}

// EngineName reports the configured engine strategy.
func (m *Manager) EngineName() string { return m.eng.Name() }

// State reports the current lifecycle state without blocking.
func (m *Manager) State() State {
	if m.IsLoaded() {
		return StateLoaded
	}
	return StateUnloaded
}

// IsLoaded is a pure query of the current state; it never blocks and never fails.
func (m *Manager) IsLoaded() bool { return m.snap.Load() != nil }

// Current returns the loaded handle's metadata, if any.
func (m *Manager) Current() (Info, bool) {
	if p := m.snap.Load(); p != nil {
		return *p, true
	}
	return Info{}, false
}

// Load loads the artifact at path, replacing any loaded model. The previous
// model is released before the new one is loaded, so any failure leaves the
// manager Unloaded. ctx bounds only the wait for the lock.
func (m *Manager) Load(ctx context.Context, path string) (Info, error) {
	release, err := m.acquire(ctx)
	if err != nil {
		return Info{}, err
	}
	defer release()

	m.publisher.Publish(Event{Name: EventLoadStart, Path: path})
	if m.cur != nil {
		prev := m.cur.info
		if err := m.dropLocked(); err != nil {
			m.log.Warn().Err(err).Str("handle", prev.ID).Msg("close replaced model")
		}
		m.publisher.Publish(Event{Name: EventReplace, HandleID: prev.ID, Path: prev.Path})
	}

	abs, size, err := fsutil.ResolveFile(path)
	if err != nil {
		return Info{}, m.failLoad(path, err)
	}
	start := time.Now()
	ectx, err := m.loadEngine(abs)
	if err != nil {
		return Info{}, m.failLoad(abs, err)
	}
	h := &Handle{
		info: Info{
			ID:        uuid.NewString(),
			Path:      abs,
			SizeBytes: size,
			Engine:    m.eng.Name(),
			LoadedAt:  time.Now(),
		},
		ctx: ectx,
	}
	m.cur = h
	info := h.info
	m.snap.Store(&info)
	m.log.Info().Str("handle", info.ID).Str("path", abs).Dur("dur", time.Since(start)).Msg("model loaded")
	m.publisher.Publish(Event{Name: EventLoadDone, HandleID: info.ID, Path: abs, Fields: map[string]any{"size_bytes": size}})
	return info, nil
}

// loadEngine calls the engine, converting a panic into an error so a
// misbehaving runtime cannot take the host process down.
func (m *Manager) loadEngine(path string) (ectx engine.Context, err error) {
	defer func() {
		if r := recover(); r != nil {
			ectx, err = nil, fmt.Errorf("engine panic during load: %v", r)
		}
	}()
	ectx, err = m.eng.Load(path, m.opts)
	if err == nil && ectx == nil {
		err = errors.New("engine returned no context")
	}
	return ectx, err
}

func (m *Manager) failLoad(path string, err error) error {
	m.log.Error().Err(err).Str("path", path).Msg("model load failed")
	m.publisher.Publish(Event{Name: EventLoadFailed, Path: path, Fields: map[string]any{"error": err.Error()}})
	return &LoadError{Path: path, Err: err}
}

// Unload releases the engine context. Unloading when nothing is loaded is a
// no-op. The manager is Unloaded afterwards even if the engine's Close fails.
func (m *Manager) Unload(ctx context.Context) error {
	release, err := m.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	if m.cur == nil {
		return nil
	}
	info := m.cur.info
	err = m.dropLocked()
	m.log.Info().Str("handle", info.ID).Msg("model unloaded")
	m.publisher.Publish(Event{Name: EventUnload, HandleID: info.ID, Path: info.Path})
	return err
}

// Close unloads the model for process teardown.
func (m *Manager) Close() error { return m.Unload(context.Background()) }

// With runs fn with the current handle while holding the exclusive lock.
// It returns ErrNotLoaded when no model is loaded. If fn reports that the
// engine context is corrupted, the handle is dropped and a fresh Load is
// required.
func (m *Manager) With(ctx context.Context, fn func(h *Handle) error) error {
	release, err := m.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	if m.cur == nil {
		return ErrNotLoaded
	}
	h := m.cur
	err = fn(h)
	if err != nil && errors.Is(err, engine.ErrContextCorrupted) && m.cur == h {
		info := h.info
		if cerr := m.dropLocked(); cerr != nil {
			m.log.Warn().Err(cerr).Str("handle", info.ID).Msg("close corrupted context")
		}
		m.log.Error().Err(err).Str("handle", info.ID).Msg("engine context corrupted; model unloaded")
		m.publisher.Publish(Event{Name: EventInvalidate, HandleID: info.ID, Path: info.Path, Fields: map[string]any{"error": err.Error()}})
	}
	return err
}

// dropLocked closes and forgets the current handle. Caller holds the lock.
func (m *Manager) dropLocked() (err error) {
	h := m.cur
	m.cur = nil
	m.snap.Store(nil)
	if h == nil || h.ctx == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine panic during close: %v", r)
		}
	}()
	return h.ctx.Close()
}
