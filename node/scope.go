package node

import (
	"sync"

	"github.com/kbukum/nodegraph/config"
	"github.com/kbukum/nodegraph/observability"
)

// Scope owns a set of connected nodes. A single mutex serialises every
// public mutation and evaluation of nodes in the scope, so a scope can be
// shared between goroutines. Computations run while the scope is locked and
// must not call back into nodes of the same scope.
type Scope struct {
	mu       sync.Mutex
	defaults config.Source
	registry *Registry
	metrics  *observability.Metrics
	tracing  bool
}

// ScopeOption configures a Scope.
type ScopeOption func(*Scope)

// WithDefaults replaces the process defaults at the end of every chain.
func WithDefaults(src config.Source) ScopeOption {
	return func(s *Scope) { s.defaults = src }
}

// WithMetrics records evaluation metrics on m.
func WithMetrics(m *observability.Metrics) ScopeOption {
	return func(s *Scope) { s.metrics = m }
}

// WithTracing opens a span for every recomputation, regardless of the
// trace option.
func WithTracing(enabled bool) ScopeOption {
	return func(s *Scope) { s.tracing = enabled }
}

// WithRegistry sets the registry used to resolve kinds by name.
func WithRegistry(r *Registry) ScopeOption {
	return func(s *Scope) { s.registry = r }
}

// NewScope creates an isolated scope.
func NewScope(opts ...ScopeOption) *Scope {
	s := &Scope{}
	for _, opt := range opts {
		opt(s)
	}
	if s.defaults == nil {
		s.defaults = config.Process()
	}
	if s.registry == nil {
		s.registry = DefaultRegistry()
	}
	return s
}

var (
	defaultScope     *Scope
	defaultScopeOnce sync.Once
)

// DefaultScope returns the process-wide scope.
func DefaultScope() *Scope {
	defaultScopeOnce.Do(func() { defaultScope = NewScope() })
	return defaultScope
}

// Registry returns the registry of the scope.
func (s *Scope) Registry() *Registry { return s.registry }

// Defaults returns the source at the end of every chain in the scope.
func (s *Scope) Defaults() config.Source { return s.defaults }
