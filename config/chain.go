package config

import "sync"

// Source answers named option lookups.
type Source interface {
	Lookup(key string) (any, bool)
}

// Layer is a plain map of option overrides.
type Layer map[string]any

// Lookup implements Source.
func (l Layer) Lookup(key string) (any, bool) {
	v, ok := l[key]
	return v, ok
}

// Chain is an ordered list of sources; the first source holding a key wins.
// Sources are referenced, not copied, so later changes to any of them are
// visible through the chain.
type Chain struct {
	sources []Source
}

// NewChain creates a chain consulting sources in the given order.
func NewChain(sources ...Source) *Chain {
	return &Chain{sources: append([]Source(nil), sources...)}
}

// Child returns a new chain with src consulted before every existing source.
func (c *Chain) Child(src Source) *Chain {
	sources := make([]Source, 0, len(c.sources)+1)
	sources = append(sources, src)
	sources = append(sources, c.sources...)
	return &Chain{sources: sources}
}

// Sources returns the chain's sources, front first.
func (c *Chain) Sources() []Source {
	return append([]Source(nil), c.sources...)
}

// Lookup returns the first value stored under key.
func (c *Chain) Lookup(key string) (any, bool) {
	for _, src := range c.sources {
		if v, ok := src.Lookup(key); ok {
			return v, true
		}
	}
	return nil, false
}

// Overrides is a concurrency-safe Layer. Kinds and nodes hold one each so
// options can be changed after the chain was bound.
type Overrides struct {
	mu     sync.RWMutex
	values Layer
}

// NewOverrides creates overrides seeded with a copy of l.
func NewOverrides(l Layer) *Overrides {
	values := make(Layer, len(l))
	for k, v := range l {
		values[k] = v
	}
	return &Overrides{values: values}
}

// Lookup implements Source.
func (o *Overrides) Lookup(key string) (any, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	v, ok := o.values[key]
	return v, ok
}

// Set stores value under key.
func (o *Overrides) Set(key string, value any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.values[key] = value
}

// Delete removes key.
func (o *Overrides) Delete(key string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.values, key)
}

// Snapshot returns a copy of the current values.
func (o *Overrides) Snapshot() Layer {
	o.mu.RLock()
	defer o.mu.RUnlock()
	l := make(Layer, len(o.values))
	for k, v := range o.values {
		l[k] = v
	}
	return l
}
