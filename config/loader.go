package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by the loader.
const EnvPrefix = "NODIFY"

// FileSystem interface for file operations (useful for testing).
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem implements FileSystem using actual file operations.
type RealFileSystem struct{}

func (rfs *RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (rfs *RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// Resolver handles finding config and env files.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles contains the resolved config and env file paths.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles returns explicit paths if provided, otherwise searches the
// standard locations for <name>.yml and .env files.
func (cr *Resolver) ResolveFiles(name string, opts LoaderConfig) ResolvedFiles {
	resolved := ResolvedFiles{
		ConfigFile: opts.ConfigFile,
		EnvFile:    opts.EnvFile,
	}
	if opts.SkipSearch {
		return resolved
	}

	if resolved.ConfigFile == "" {
		resolved.ConfigFile = cr.first(
			fmt.Sprintf("./%s.yml", name),
			fmt.Sprintf("./%s.yaml", name),
			fmt.Sprintf("./config/%s.yml", name),
			fmt.Sprintf("./config/%s.yaml", name),
		)
	}
	if resolved.EnvFile == "" {
		resolved.EnvFile = cr.first(
			fmt.Sprintf(".env.%s", name),
			".env",
			"config/.env",
		)
	}
	return resolved
}

func (cr *Resolver) first(paths ...string) string {
	for _, path := range paths {
		if cr.FileSystem.Exists(path) {
			return path
		}
	}
	return ""
}

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string // Direct config file path (optional)
	EnvFile    string // Direct env file path (optional)
	SkipSearch bool   // Only use explicit paths
}

// LoaderOption is a functional option for Load.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithoutSearch disables the search for config and env files.
func WithoutSearch() LoaderOption {
	return func(lc *LoaderConfig) { lc.SkipSearch = true }
}

// Load reads configuration into cfg. Sources, lowest priority first: the
// values already present in defaults, the YAML file, the .env file, and
// NODIFY_* environment variables.
func Load(name string, cfg interface{}, defaults map[string]any, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = &RealFileSystem{}
	}

	resolver := &Resolver{FileSystem: lc.FileSystem}
	files := resolver.ResolveFiles(name, lc)

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// 1. YAML config (base configuration)
	if files.ConfigFile != "" && lc.FileSystem.Exists(files.ConfigFile) {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", files.ConfigFile, err)
		}
	}

	// 2. .env file, before binding so its variables are visible
	if files.EnvFile != "" && lc.FileSystem.Exists(files.EnvFile) {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", files.EnvFile, err)
		}
	}

	// 3. Environment variables
	bindEnv(v, defaults)

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config for %s: %w", name, err)
	}
	return nil
}

// LoadSettings loads, defaults, and validates Settings.
func LoadSettings(name string, opts ...LoaderOption) (Settings, error) {
	s := DefaultSettings()
	if err := Load(name, &s, settingsDefaults(s), opts...); err != nil {
		return s, err
	}
	s.ApplyDefaults()
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// SettingsFromEnv builds Settings from NODIFY_* environment variables only.
func SettingsFromEnv() (Settings, error) {
	return LoadSettings("nodegraph", WithoutSearch())
}

// settingsDefaults flattens s into dotted viper keys.
func settingsDefaults(s Settings) map[string]any {
	d := map[string]any{
		"logging.level":     s.Logging.Level,
		"logging.format":    s.Logging.Format,
		"logging.output":    s.Logging.Output,
		"logging.no_color":  s.Logging.NoColor,
		"logging.timestamp": s.Logging.Timestamp,
		"logging.caller":    s.Logging.Caller,
	}
	for k, v := range s.Nodes.Layer() {
		d["nodes."+k] = v
	}
	return d
}

// bindEnv binds every known key to its environment variable. Node options
// drop the section name (nodes.batch_iter -> NODIFY_BATCH_ITER); everything
// else keeps it (logging.level -> NODIFY_LOGGING_LEVEL).
func bindEnv(v *viper.Viper, defaults map[string]any) {
	for key := range defaults {
		_ = v.BindEnv(key, envName(key))
	}
	// lazy_init has no default but must still be bindable.
	_ = v.BindEnv("nodes."+KeyLazyInit, envName("nodes."+KeyLazyInit))
}

func envName(key string) string {
	key = strings.TrimPrefix(key, "nodes.")
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
