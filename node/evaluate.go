package node

import (
	"context"
	"fmt"

	"github.com/kbukum/nodegraph/config"
	"github.com/kbukum/nodegraph/logger"
	"github.com/kbukum/nodegraph/observability"
)

// Get returns the node's output, recomputing it when the node was
// invalidated or an evaluated input differs from the ones used for the
// cached output.
func (n *Node) Get() (any, error) {
	return n.GetContext(context.Background())
}

// GetContext is Get with a context. The context is checked before each node
// is evaluated and carries the evaluation span when tracing is enabled; it
// does not interrupt a running computation.
func (n *Node) GetContext(ctx context.Context) (any, error) {
	n.scope.mu.Lock()
	defer n.scope.mu.Unlock()
	return n.get(ctx)
}

// get runs with the scope locked.
func (n *Node) get(ctx context.Context) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts, err := n.chain.Resolve()
	if err != nil {
		return nil, err
	}
	n.log = n.baseLog.WithLevel(opts.LogLevel)
	n.log.Debug("getting output")

	evaluated, err := n.evaluateInputs(ctx)
	if err != nil {
		return nil, err
	}

	if !n.stale && !n.outdated(evaluated, opts.BatchIter) {
		n.stale = false
		if m := n.scope.metrics; m != nil {
			m.RecordCacheHit(ctx, n.kind.name)
		}
		n.log.Info("no need to evaluate")
		return n.output, nil
	}
	return n.recompute(ctx, evaluated, opts)
}

func (n *Node) recompute(ctx context.Context, evaluated map[string]any, opts config.Options) (any, error) {
	ev := observability.NewEvaluation(n.ID(), n.kind.name, n.scope.metrics, n.scope.tracing || opts.Trace)
	ctx, span := ev.Start(ctx)

	n.prevBatchIter = opts.BatchIter
	var (
		output any
		err    error
	)
	if hasBatch(n, evaluated) {
		output, err = n.expandBatch(ctx, evaluated, opts.BatchIter)
	} else {
		output, err = n.invoke(ctx, evaluated)
	}
	ev.End(ctx, span, err)
	n.stale = false

	if err != nil {
		calcErr := &CalculationError{Node: n, Cause: err, Inputs: evaluated}
		n.errored = true
		n.err = calcErr
		n.log.Error("evaluation failed", logger.ErrorFields("get", err))
		if opts.RaiseCustomErrors {
			return nil, calcErr
		}
		return nil, err
	}

	n.output = output
	n.hasOutput = true
	n.snapshot = evaluated
	n.batches = batchVersions(n, evaluated)
	n.updates++
	n.errored = false
	n.err = nil
	n.log.Info("evaluated because inputs changed", logger.Fields(
		logger.FieldUpdates, n.updates,
		logger.FieldDuration, ev.Duration().Milliseconds(),
	))
	return output, nil
}

// evaluateInputs replaces every node-valued input with its output. Batch
// nodes are refreshed but passed through as markers.
func (n *Node) evaluateInputs(ctx context.Context) (map[string]any, error) {
	if n.kind.behaviour == behaviourConditional {
		return n.evaluateConditionalInputs(ctx)
	}
	return n.mapInputs(n.inputs, func(v any) (any, error) {
		return evaluateInput(ctx, v.(*Node))
	}, true)
}

func evaluateInput(ctx context.Context, u *Node) (any, error) {
	out, err := u.get(ctx)
	if err != nil {
		return nil, err
	}
	if u.IsBatch() {
		return u, nil
	}
	// A batch produced by an upstream expansion is passed on as a marker
	// once its items are evaluated.
	if b, ok := asBatch(out); ok {
		if _, err := b.get(ctx); err != nil {
			return nil, err
		}
		return b, nil
	}
	return out, nil
}

// IsOutputOutdated reports whether the cached output cannot be reused for
// the given evaluated inputs.
func (n *Node) IsOutputOutdated(evaluated map[string]any) bool {
	n.scope.mu.Lock()
	defer n.scope.mu.Unlock()
	return n.outdated(evaluated, n.chain.String(config.KeyBatchIter, config.BatchZip))
}

func (n *Node) outdated(evaluated map[string]any, batchIter string) bool {
	if !n.hasOutput {
		return true
	}
	if len(evaluated) != len(n.snapshot) {
		return true
	}
	for key := range evaluated {
		if _, ok := n.snapshot[key]; !ok {
			return true
		}
	}
	if n.prevBatchIter != batchIter && hasBatch(n, evaluated) {
		return true
	}
	for key, prev := range n.snapshot {
		if !equalInput(prev, evaluated[key]) {
			return true
		}
	}
	// A batch is compared by identity, so content changes are caught here.
	for b, updates := range batchVersions(n, evaluated) {
		if n.batches[b] != updates {
			return true
		}
	}
	return false
}

// invoke calls the computation once with the given evaluated inputs.
func (n *Node) invoke(ctx context.Context, evaluated map[string]any) (out any, err error) {
	call, err := newCall(ctx, n, evaluated)
	if err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%s panicked: %v", n.kind.name, r)
		}
	}()
	return n.kind.fn(call)
}
