package main

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/kbukum/nodegraph/config"
	"github.com/kbukum/nodegraph/graph"
	"github.com/kbukum/nodegraph/logger"
	"github.com/kbukum/nodegraph/node"
	"github.com/kbukum/nodegraph/observability"
)

var runFlags struct {
	sets        []string
	includeDirs []string
	tree        bool
	levels      bool
	otlp        string
}

var runCmd = &cobra.Command{
	Use:   "run <definition.yaml>",
	Short: "Build a graph definition and print its outputs",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringArrayVar(&runFlags.sets, "set", nil, "input update id.key=value before evaluating (repeatable, value is YAML)")
	f.StringSliceVar(&runFlags.includeDirs, "include-dir", nil, "directories searched for included definitions (default: the definition's directory)")
	f.BoolVar(&runFlags.tree, "tree", false, "print the input tree of every output instead of its value")
	f.BoolVar(&runFlags.levels, "levels", false, "print the nodes grouped by dependency level")
	f.StringVar(&runFlags.otlp, "otlp-endpoint", "", "export traces and metrics to this OTLP HTTP endpoint (host:port)")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	scopeOpts := []node.ScopeOption{node.WithDefaults(config.NewDefaults(settings.Nodes))}
	if runFlags.otlp != "" {
		shutdown, opts, err := initTelemetry(ctx, runFlags.otlp)
		if err != nil {
			return err
		}
		defer shutdown()
		scopeOpts = append(scopeOpts, opts...)
	}

	path := args[0]
	def, err := graph.LoadFile(path)
	if err != nil {
		return err
	}
	dirs := runFlags.includeDirs
	if len(dirs) == 0 {
		dirs = []string{filepath.Dir(path)}
	}
	def, err = graph.Flatten(def, graph.NewFileLoader(dirs...))
	if err != nil {
		return err
	}

	g, err := graph.Build(ctx, def, node.NewScope(scopeOpts...))
	if err != nil {
		return err
	}
	updates, err := parseSets(runFlags.sets)
	if err != nil {
		return err
	}
	for _, id := range slices.Sorted(maps.Keys(updates)) {
		if err := g.Update(ctx, id, updates[id]); err != nil {
			return fmt.Errorf("updating %q: %w", id, err)
		}
	}

	switch {
	case runFlags.levels:
		return printLevels(cmd, g)
	case runFlags.tree:
		return printTrees(cmd, g)
	}
	results, err := g.Evaluate(ctx)
	if err != nil {
		return err
	}
	for id, v := range results {
		results[id] = plain(v)
	}
	return writeJSON(cmd, results)
}

// parseSets groups id.key=value flags by node id. Values are decoded as YAML
// scalars or flow collections, so "$other" rewires an input to another node.
func parseSets(sets []string) (map[string]map[string]any, error) {
	out := make(map[string]map[string]any)
	for _, s := range sets {
		target, raw, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --set %q: expected id.key=value", s)
		}
		id, key, ok := strings.Cut(target, ".")
		if !ok || id == "" || key == "" {
			return nil, fmt.Errorf("invalid --set %q: expected id.key=value", s)
		}
		var v any
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("invalid --set %q: %w", s, err)
		}
		if out[id] == nil {
			out[id] = make(map[string]any)
		}
		out[id][key] = v
	}
	return out, nil
}

func initTelemetry(ctx context.Context, endpoint string) (func(), []node.ScopeOption, error) {
	tcfg := observability.DefaultTracerConfig("nodegraph")
	tcfg.Endpoint = endpoint
	tp, err := observability.InitTracer(ctx, tcfg)
	if err != nil {
		return nil, nil, err
	}
	mcfg := observability.DefaultMeterConfig("nodegraph")
	mcfg.Endpoint = endpoint
	mp, err := observability.InitMeter(ctx, mcfg)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, nil, err
	}
	metrics, err := observability.NewMetrics(observability.Meter("nodegraph"))
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, nil, err
	}
	shutdown := func() {
		ctx := context.WithoutCancel(ctx)
		if err := tp.Shutdown(ctx); err != nil {
			logger.Get("nodegraph").Warn("tracer shutdown failed", logger.ErrorFields("shutdown", err))
		}
		if err := mp.Shutdown(ctx); err != nil {
			logger.Get("nodegraph").Warn("meter shutdown failed", logger.ErrorFields("shutdown", err))
		}
	}
	return shutdown, []node.ScopeOption{node.WithMetrics(metrics), node.WithTracing(true)}, nil
}

func printTrees(cmd *cobra.Command, g *graph.Graph) error {
	ids := g.Outputs
	if len(ids) == 0 {
		ids = g.Order
	}
	trees := make(map[string]*node.Tree, len(ids))
	for _, id := range ids {
		trees[id] = g.Nodes[id].GetTree()
	}
	return writeJSON(cmd, trees)
}

func printLevels(cmd *cobra.Command, g *graph.Graph) error {
	levels, err := g.Levels()
	if err != nil {
		return err
	}
	ids := make(map[*node.Node]string, len(g.Nodes))
	for id, n := range g.Nodes {
		ids[n] = id
	}
	out := cmd.OutOrStdout()
	for i, level := range levels {
		names := make([]string, 0, len(level))
		for _, n := range level {
			names = append(names, ids[n])
		}
		slices.Sort(names)
		fmt.Fprintf(out, "%d: %s\n", i, strings.Join(names, " "))
	}
	return nil
}

// plain replaces batch results by their items so they encode as lists.
func plain(v any) any {
	n, ok := v.(*node.Node)
	if !ok {
		return v
	}
	if !n.IsBatch() {
		return n.ID()
	}
	items, err := n.Items()
	if err != nil {
		return err.Error()
	}
	items = append([]any(nil), items...)
	for i, item := range items {
		items[i] = plain(item)
	}
	return items
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
