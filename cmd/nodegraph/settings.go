package main

import (
	"github.com/kbukum/nodegraph/config"
	"github.com/kbukum/nodegraph/logger"
)

// loadSettings reads the settings named by the persistent flags and
// initialises the global logger from them.
func loadSettings() (config.Settings, error) {
	var opts []config.LoaderOption
	if rootFlags.config != "" {
		opts = append(opts, config.WithConfigFile(rootFlags.config))
	}
	if rootFlags.envFile != "" {
		opts = append(opts, config.WithEnvFile(rootFlags.envFile))
	}
	s, err := config.LoadSettings("nodegraph", opts...)
	if err != nil {
		return s, err
	}
	logger.Init(s.Logging)
	logger.Register("nodegraph", logger.New(&s.Logging, "nodegraph"))
	return s, nil
}
