package dsl

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// ErrUnknownMatcher is returned when a registry has no definition for a name.
var ErrUnknownMatcher = errors.New("unknown matcher")

// Constructor builds a fresh instance of one definition.
type Constructor func(ctx ExecutionContext, expected ...any) (*Matcher, error)

// Registry maps matcher names to definitions.
//
// Thread-Safety:
//   - Register, Lookup and Names are safe for concurrent use
//   - Instances built from the registry are not; each belongs to one use site
type Registry struct {
	mu          sync.RWMutex
	definitions map[string]Definition

	logger              *zap.SugaredLogger
	phraser             Phraser
	includeChainClauses bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for registry events and delegated calls.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithPhraser sets the phraser used by default descriptions and messages.
func WithPhraser(p Phraser) Option {
	return func(r *Registry) {
		if p != nil {
			r.phraser = p
		}
	}
}

// WithChainClauses makes default descriptions include the chain methods called
// on an instance, e.g. "have errors on \"age\" with \"too young\"".
func WithChainClauses(include bool) Option {
	return func(r *Registry) { r.includeChainClauses = include }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		definitions: make(map[string]Definition),
		logger:      zap.NewNop().Sugar(),
		phraser:     defaultPhraser,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Default is the process-wide registry used by Define.
var Default = NewRegistry()

// Define registers a matcher in the Default registry.
func Define(name string, declare DeclareFunc) Constructor {
	return Default.Register(name, declare)
}

// Register stores a definition under name and returns its constructor.
// Registering a name again replaces the earlier definition; constructors
// returned before the replacement keep building the old one.
// Register panics on an empty name or a nil declaration.
func (r *Registry) Register(name string, declare DeclareFunc) Constructor {
	if name == "" {
		panic("dsl: Register with empty matcher name")
	}
	if declare == nil {
		panic(fmt.Sprintf("dsl: Register %q with nil declaration", name))
	}

	def := Definition{Name: name, Declare: declare}

	r.mu.Lock()
	_, replaced := r.definitions[name]
	r.definitions[name] = def
	r.mu.Unlock()

	if replaced {
		r.logger.Debugw("Matcher definition replaced", "matcher", name)
	} else {
		r.logger.Debugw("Matcher registered", "matcher", name)
	}

	return r.constructor(def)
}

func (r *Registry) constructor(def Definition) Constructor {
	return func(ctx ExecutionContext, expected ...any) (*Matcher, error) {
		return build(def, ctx, expected, buildOptions{
			phraser:             r.phraser,
			includeChainClauses: r.includeChainClauses,
			logger:              r.logger,
		})
	}
}

// Lookup returns the constructor for the current definition of name.
func (r *Registry) Lookup(name string) (Constructor, bool) {
	def, ok := r.Definition(name)
	if !ok {
		return nil, false
	}
	return r.constructor(def), true
}

// Definition returns the current definition of name.
func (r *Registry) Definition(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.definitions[name]
	return def, ok
}

// New builds an instance of the matcher registered as name.
func (r *Registry) New(name string, ctx ExecutionContext, expected ...any) (*Matcher, error) {
	ctor, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMatcher, name)
	}
	return ctor(ctx, expected...)
}

// Names returns the registered matcher names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.definitions))
	for name := range r.definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
