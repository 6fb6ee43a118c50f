// Package config resolves the options that steer node behaviour.
//
// Options are looked up through a Chain: an ordered list of Sources consulted
// front-to-back. A node's chain is its own instance Layer, then the Layer of
// its kind and of every parent kind, then the process-wide Defaults:
//
//	chain := config.NewChain(config.Process()).Child(kindLayer).Child(config.Layer{})
//	opts, err := chain.Resolve()
//
// Process defaults are seeded from NODIFY_* environment variables and can be
// loaded from a YAML file with Load:
//
//	var s config.Settings
//	err := config.Load("nodegraph", &s)
package config
