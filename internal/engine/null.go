package engine

// Null is the engine used when no runtime is integrated. It never loads
// anything, so the bridge can never return text that no model produced.
type Null struct{}

func (Null) Name() string { return KindNone }

func (Null) Load(path string, opts LoadOptions) (Context, error) {
	return nil, ErrDependencyUnavailable("no inference engine configured")
}
