package node

import (
	"context"

	"github.com/kbukum/nodegraph/config"
	"github.com/kbukum/nodegraph/errors"
	"github.com/kbukum/nodegraph/logger"
	"github.com/kbukum/nodegraph/observability"
)

// NewBatch creates a batch marker holding items. A node receiving a batch
// as an input runs its computation once per item and returns a batch of the
// results.
func NewBatch(items ...any) (*Node, error) {
	return BatchKind.Construct(items, nil)
}

// Items returns the evaluated items of a batch node.
func (n *Node) Items() ([]any, error) {
	out, err := n.Get()
	if err != nil {
		return nil, err
	}
	items, _ := out.([]any)
	return items, nil
}

func asBatch(v any) (*Node, bool) {
	b, ok := v.(*Node)
	if !ok || !b.IsBatch() {
		return nil, false
	}
	return b, true
}

func hasBatch(n *Node, evaluated map[string]any) bool {
	found := false
	n.eachInput(evaluated, func(_ string, v any) {
		if _, ok := asBatch(v); ok {
			found = true
		}
	})
	return found
}

// batchVersions records the update counter of every batch in evaluated.
func batchVersions(n *Node, evaluated map[string]any) map[*Node]int {
	var versions map[*Node]int
	n.eachInput(evaluated, func(_ string, v any) {
		if b, ok := asBatch(v); ok {
			if versions == nil {
				versions = make(map[*Node]int)
			}
			versions[b] = b.updates
		}
	})
	return versions
}

// batchSlot is an input position holding a batch.
type batchSlot struct {
	param ParamKind
	name  string
	index int
	key   string
	batch *Node
	items []any
}

func (s batchSlot) set(row map[string]any, v any) {
	switch s.param {
	case ParamVarPositional:
		seq := append([]any(nil), row[s.name].([]any)...)
		seq[s.index] = v
		row[s.name] = seq
	case ParamVarKeyword:
		src := row[s.name].(map[string]any)
		m := make(map[string]any, len(src))
		for k, item := range src {
			m[k] = item
		}
		m[s.key] = v
		row[s.name] = m
	default:
		row[s.name] = v
	}
}

// expandBatch runs the computation once per combination of batch items and
// wraps the results in a new batch. Slots are visited in signature order;
// var-keyword entries in name order.
func (n *Node) expandBatch(ctx context.Context, evaluated map[string]any, mode string) (any, error) {
	var slots []batchSlot
	for _, p := range n.kind.sig {
		v, ok := evaluated[p.Name]
		if !ok {
			continue
		}
		switch p.Kind {
		case ParamVarPositional:
			seq, _ := sequence(v)
			for i, item := range seq {
				if b, ok := asBatch(item); ok {
					slots = append(slots, batchSlot{param: p.Kind, name: p.Name, index: i, batch: b})
				}
			}
		case ParamVarKeyword:
			m, _ := mapping(v)
			for _, key := range sortedKeys(m) {
				if b, ok := asBatch(m[key]); ok {
					slots = append(slots, batchSlot{param: p.Kind, name: p.Name, key: key, batch: b})
				}
			}
		default:
			if b, ok := asBatch(v); ok {
				slots = append(slots, batchSlot{param: p.Kind, name: p.Name, batch: b})
			}
		}
	}

	for i := range slots {
		items, err := slots[i].batch.get(ctx)
		if err != nil {
			return nil, err
		}
		slots[i].items, _ = items.([]any)
	}

	var rows [][]int
	switch mode {
	case config.BatchZip:
		rows = zipRows(slots)
	case config.BatchProduct:
		rows = productRows(slots)
	default:
		return nil, errors.InvalidBatchMode(mode)
	}

	outputs := make([]any, 0, len(rows))
	for _, row := range rows {
		values := make(map[string]any, len(evaluated))
		for k, v := range evaluated {
			values[k] = v
		}
		for i, s := range slots {
			s.set(values, s.items[row[i]])
		}
		out, err := n.invoke(ctx, values)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
	}
	n.log.Debug("batch expanded", logger.Fields(
		logger.FieldBatchIter, mode,
		logger.FieldRows, len(outputs),
	))
	observability.SetSpanAttribute(ctx, observability.AttrBatchSize, len(outputs))

	b, err := BatchKind.construct(ctx, n.scope, outputs, nil, nil)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// zipRows pairs items by position, stopping at the shortest batch.
func zipRows(slots []batchSlot) [][]int {
	if len(slots) == 0 {
		return nil
	}
	size := len(slots[0].items)
	for _, s := range slots[1:] {
		size = min(size, len(s.items))
	}
	rows := make([][]int, size)
	for i := range rows {
		row := make([]int, len(slots))
		for j := range row {
			row[j] = i
		}
		rows[i] = row
	}
	return rows
}

// productRows enumerates the cartesian product; the last slot varies
// fastest.
func productRows(slots []batchSlot) [][]int {
	if len(slots) == 0 {
		return nil
	}
	for _, s := range slots {
		if len(s.items) == 0 {
			return nil
		}
	}
	var rows [][]int
	idx := make([]int, len(slots))
	for {
		rows = append(rows, append([]int(nil), idx...))
		i := len(slots) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(slots[i].items) {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return rows
		}
	}
}
