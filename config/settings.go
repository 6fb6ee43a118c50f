package config

import (
	"fmt"

	"github.com/kbukum/nodegraph/logger"
)

// Settings holds the process-wide defaults as they appear in configuration
// files and NODIFY_* environment variables.
//
// Example:
//
//	nodes:
//	  lazy: false
//	  batch_iter: product
//	logging:
//	  level: debug
type Settings struct {
	Nodes   NodeSettings  `yaml:"nodes" mapstructure:"nodes"`
	Logging logger.Config `yaml:"logging" mapstructure:"logging"`
}

// NodeSettings are the option defaults applied to every node.
type NodeSettings struct {
	Lazy              bool   `yaml:"lazy" mapstructure:"lazy"`
	LazyInit          *bool  `yaml:"lazy_init" mapstructure:"lazy_init"`
	BatchIter         string `yaml:"batch_iter" mapstructure:"batch_iter" validate:"oneof=zip product"`
	RaiseCustomErrors bool   `yaml:"raise_custom_errors" mapstructure:"raise_custom_errors"`
	LogLevel          string `yaml:"log_level" mapstructure:"log_level" validate:"oneof=trace debug info warn error fatal disabled"`
	Trace             bool   `yaml:"trace" mapstructure:"trace"`
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() Settings {
	s := Settings{
		Nodes: NodeSettings{
			Lazy:      true,
			BatchIter: BatchZip,
			LogLevel:  "info",
		},
	}
	s.Logging.ApplyDefaults()
	return s
}

// ApplyDefaults fills empty string fields with their defaults.
func (s *Settings) ApplyDefaults() {
	if s.Nodes.BatchIter == "" {
		s.Nodes.BatchIter = BatchZip
	}
	if s.Nodes.LogLevel == "" {
		s.Nodes.LogLevel = "info"
	}
	s.Logging.ApplyDefaults()
}

// Validate validates the settings.
func (s *Settings) Validate() error {
	if err := validateStruct(s.Nodes); err != nil {
		return fmt.Errorf("config.nodes: %w", err)
	}
	if err := s.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}

// Layer converts the node settings to an option layer.
func (n NodeSettings) Layer() Layer {
	l := Layer{
		KeyLazy:              n.Lazy,
		KeyBatchIter:         n.BatchIter,
		KeyRaiseCustomErrors: n.RaiseCustomErrors,
		KeyLogLevel:          n.LogLevel,
		KeyTrace:             n.Trace,
	}
	if n.LazyInit != nil {
		l[KeyLazyInit] = *n.LazyInit
	}
	return l
}
