package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kbukum/nodegraph/errors"
)

func TestChainLookupOrder(t *testing.T) {
	base := Layer{"lazy": true, "batch_iter": "zip"}
	chain := NewChain(Layer{"batch_iter": "product"}, base)

	v, ok := chain.Lookup("batch_iter")
	if !ok || v != "product" {
		t.Fatalf("expected front source to win, got %v (found=%v)", v, ok)
	}
	v, ok = chain.Lookup("lazy")
	if !ok || v != true {
		t.Fatalf("expected fallback to base, got %v (found=%v)", v, ok)
	}
	if _, ok := chain.Lookup("missing"); ok {
		t.Fatal("expected missing key to be absent")
	}
}

func TestChainSeesLaterChanges(t *testing.T) {
	kind := Layer{}
	chain := NewChain(kind)
	kind["trace"] = true

	if !chain.Bool("trace", false) {
		t.Fatal("expected chain to observe mutation of a referenced layer")
	}
}

func TestChainChild(t *testing.T) {
	parent := NewChain(Layer{"log_level": "warn"})
	child := parent.Child(Layer{"log_level": "debug"})

	if got := child.String("log_level", ""); got != "debug" {
		t.Fatalf("expected child override, got %q", got)
	}
	if got := parent.String("log_level", ""); got != "warn" {
		t.Fatalf("expected parent untouched, got %q", got)
	}
	if n := len(child.Sources()); n != 2 {
		t.Fatalf("expected 2 sources, got %d", n)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		layer   Layer
		check   func(t *testing.T, o Options)
		wantErr bool
	}{
		{
			name:  "defaults",
			layer: Layer{},
			check: func(t *testing.T, o Options) {
				if !o.Lazy || o.BatchIter != BatchZip || o.LogLevel != "info" || o.EagerInit() {
					t.Fatalf("unexpected defaults: %+v", o)
				}
			},
		},
		{
			name:  "string booleans are coerced",
			layer: Layer{"lazy": "false", "trace": "1"},
			check: func(t *testing.T, o Options) {
				if o.Lazy || !o.Trace {
					t.Fatalf("expected lazy=false trace=true, got %+v", o)
				}
				if !o.EagerInit() {
					t.Fatal("expected eager init when lazy=false")
				}
			},
		},
		{
			name:  "lazy_init wins over lazy",
			layer: Layer{"lazy": false, "lazy_init": true},
			check: func(t *testing.T, o Options) {
				if o.EagerInit() {
					t.Fatal("expected lazy_init=true to suppress eager init")
				}
			},
		},
		{
			name:    "uncoercible bool",
			layer:   Layer{"lazy": "perhaps"},
			wantErr: true,
		},
		{
			name:    "unknown batch mode",
			layer:   Layer{"batch_iter": "interleave"},
			wantErr: true,
		},
		{
			name:    "unknown log level",
			layer:   Layer{"log_level": "loud"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := NewChain(tt.layer).Resolve()
			if tt.wantErr {
				if !errors.HasCode(err, errors.ErrCodeInvalidOption) {
					t.Fatalf("expected INVALID_OPTION, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, o)
		})
	}
}

func TestOptionsValidate(t *testing.T) {
	_, err := NewChain(Layer{"batch_iter": "cartesian"}).Resolve()
	if !errors.HasCode(err, errors.ErrCodeInvalidOption) {
		t.Fatalf("expected INVALID_OPTION, got %v", err)
	}
	appErr, _ := errors.AsAppError(err)
	if appErr.Details["option"] != "batch_iter" {
		t.Fatalf("expected option detail batch_iter, got %v", appErr.Details["option"])
	}
}

func TestDefaultsTemporarily(t *testing.T) {
	d := NewDefaults(DefaultSettings().Nodes)
	chain := NewChain(Layer{}, d)

	restore := d.Temporarily(Layer{"batch_iter": "product", "custom": 1})
	if got := chain.String("batch_iter", ""); got != "product" {
		t.Fatalf("expected product during override, got %q", got)
	}
	restore()

	if got := chain.String("batch_iter", ""); got != "zip" {
		t.Fatalf("expected zip after restore, got %q", got)
	}
	if _, ok := d.Lookup("custom"); ok {
		t.Fatal("expected key added by override to be removed")
	}
}

func TestSettingsValidate(t *testing.T) {
	s := DefaultSettings()
	if err := s.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}

	s.Nodes.LogLevel = "loud"
	if err := s.Validate(); err == nil {
		t.Fatal("expected invalid log level to fail")
	}
}

type fakeFS struct {
	files map[string]bool
}

func (f *fakeFS) Exists(path string) bool  { return f.files[path] }
func (f *fakeFS) LoadEnv(path string) error { return nil }

func TestResolverSearch(t *testing.T) {
	r := &Resolver{FileSystem: &fakeFS{files: map[string]bool{
		"./config/nodegraph.yaml": true,
		".env":                    true,
	}}}

	got := r.ResolveFiles("nodegraph", LoaderConfig{})
	if got.ConfigFile != "./config/nodegraph.yaml" || got.EnvFile != ".env" {
		t.Fatalf("unexpected resolution: %+v", got)
	}

	got = r.ResolveFiles("nodegraph", LoaderConfig{SkipSearch: true})
	if got.ConfigFile != "" || got.EnvFile != "" {
		t.Fatalf("expected no files without search, got %+v", got)
	}
}

func TestLoadSettingsFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nodegraph.yml")
	content := "nodes:\n  lazy: false\n  batch_iter: product\nlogging:\n  level: debug\n  format: json\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSettings("nodegraph", WithConfigFile(path), WithoutSearch())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Nodes.Lazy {
		t.Fatal("expected lazy=false from file")
	}
	if s.Nodes.BatchIter != BatchProduct {
		t.Fatalf("expected product, got %q", s.Nodes.BatchIter)
	}
	if s.Nodes.LogLevel != "info" {
		t.Fatalf("expected default node log level, got %q", s.Nodes.LogLevel)
	}
	if s.Logging.Level != "debug" || s.Logging.Format != "json" {
		t.Fatalf("unexpected logging settings: %+v", s.Logging)
	}
}

func TestLoadSettingsEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nodegraph.yml")
	if err := os.WriteFile(path, []byte("nodes:\n  batch_iter: product\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("NODIFY_BATCH_ITER", "zip")
	t.Setenv("NODIFY_LAZY_INIT", "false")
	t.Setenv("NODIFY_LOGGING_LEVEL", "warn")

	s, err := LoadSettings("nodegraph", WithConfigFile(path), WithoutSearch())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Nodes.BatchIter != BatchZip {
		t.Fatalf("expected env to win, got %q", s.Nodes.BatchIter)
	}
	if s.Nodes.LazyInit == nil || *s.Nodes.LazyInit {
		t.Fatalf("expected lazy_init=false, got %v", s.Nodes.LazyInit)
	}
	if s.Logging.Level != "warn" {
		t.Fatalf("expected logging level warn, got %q", s.Logging.Level)
	}
}

func TestSettingsFromEnvInvalid(t *testing.T) {
	t.Setenv("NODIFY_BATCH_ITER", "diagonal")
	if _, err := SettingsFromEnv(); err == nil {
		t.Fatal("expected invalid batch_iter to fail")
	}
}

func TestOverrides(t *testing.T) {
	seed := Layer{"lazy": true}
	o := NewOverrides(seed)
	seed["lazy"] = false

	chain := NewChain(o)
	if !chain.Bool("lazy", false) {
		t.Fatal("expected overrides to copy the seed layer")
	}

	o.Set("batch_iter", "product")
	if got := chain.String("batch_iter", ""); got != "product" {
		t.Fatalf("expected product, got %q", got)
	}
	o.Delete("batch_iter")
	if _, ok := chain.Lookup("batch_iter"); ok {
		t.Fatal("expected deleted key to be absent")
	}
	if snap := o.Snapshot(); len(snap) != 1 {
		t.Fatalf("expected 1 value in snapshot, got %v", snap)
	}
}
