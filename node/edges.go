package node

import "weak"

// rewire brings the inbound edges in line with n.inputs and keeps the
// outbound lists of upstream nodes consistent. Runs with the scope locked.
func (n *Node) rewire() {
	current := make(map[string]bool, len(n.inbound))
	n.eachInput(n.inputs, func(key string, v any) {
		current[key] = true
		n.link(key, v)
	})
	for key := range n.inbound {
		if !current[key] {
			n.link(key, nil)
		}
	}
}

// link points the inbound edge at key to value. An upstream node loses its
// outbound entry for n only when no other key of n still references it.
func (n *Node) link(key string, value any) {
	old := n.inbound[key]
	upstream, _ := value.(*Node)
	if old == upstream {
		return
	}
	if old != nil {
		delete(n.inbound, key)
		if !n.dependsDirectlyOn(old) {
			old.removeOutbound(n)
		}
	}
	if upstream != nil {
		n.inbound[key] = upstream
		upstream.addOutbound(n)
	}
}

func (n *Node) dependsDirectlyOn(u *Node) bool {
	for _, v := range n.inbound {
		if v == u {
			return true
		}
	}
	return false
}

func (n *Node) addOutbound(d *Node) {
	wp := weak.Make(d)
	n.pruneOutbound()
	for _, o := range n.outbound {
		if o == wp {
			return
		}
	}
	n.outbound = append(n.outbound, wp)
}

func (n *Node) removeOutbound(d *Node) {
	wp := weak.Make(d)
	for i, o := range n.outbound {
		if o == wp {
			n.outbound = append(n.outbound[:i], n.outbound[i+1:]...)
			break
		}
	}
	n.pruneOutbound()
}

// pruneOutbound drops entries whose downstream node was collected.
func (n *Node) pruneOutbound() {
	live := n.outbound[:0]
	for _, o := range n.outbound {
		if o.Value() != nil {
			live = append(live, o)
		}
	}
	clear(n.outbound[len(live):])
	n.outbound = live
}

func (n *Node) liveOutputs() []*Node {
	out := make([]*Node, 0, len(n.outbound))
	for _, o := range n.outbound {
		if d := o.Value(); d != nil {
			out = append(out, d)
		}
	}
	n.pruneOutbound()
	return out
}

// outboundLen counts outbound entries, dead ones included.
func (n *Node) outboundLen() int { return len(n.outbound) }
