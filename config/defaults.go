package config

import (
	"sync"

	"github.com/kbukum/nodegraph/logger"
)

// Defaults is the concurrency-safe, mutable source at the end of every chain.
type Defaults struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewDefaults creates defaults seeded from settings.
func NewDefaults(s NodeSettings) *Defaults {
	return &Defaults{values: s.Layer()}
}

// Lookup implements Source.
func (d *Defaults) Lookup(key string) (any, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.values[key]
	return v, ok
}

// Set stores a default value.
func (d *Defaults) Set(key string, value any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.values[key] = value
}

// Reset replaces every value with the given settings.
func (d *Defaults) Reset(s NodeSettings) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.values = s.Layer()
}

// Temporarily applies overrides and returns a function restoring the previous
// values. Typical use:
//
//	defer config.Process().Temporarily(config.Layer{"batch_iter": "product"})()
func (d *Defaults) Temporarily(overrides Layer) (restore func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	type saved struct {
		value   any
		present bool
	}
	previous := make(map[string]saved, len(overrides))
	for k, v := range overrides {
		old, ok := d.values[k]
		previous[k] = saved{value: old, present: ok}
		d.values[k] = v
	}

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		for k, s := range previous {
			if s.present {
				d.values[k] = s.value
			} else {
				delete(d.values, k)
			}
		}
	}
}

var (
	process     *Defaults
	processOnce sync.Once
)

// Process returns the process-wide defaults, seeded on first use from
// NODIFY_* environment variables.
func Process() *Defaults {
	processOnce.Do(func() {
		s, err := SettingsFromEnv()
		if err != nil {
			logger.Get("config").Warn("ignoring invalid NODIFY_* environment", logger.ErrorFields("load", err))
			s = DefaultSettings()
		}
		process = NewDefaults(s.Nodes)
	})
	return process
}
