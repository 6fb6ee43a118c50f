// Package graph works on node graphs from the outside: traversal in both
// directions, grouping into dependency levels, and building graphs from
// YAML definitions.
//
// A definition names nodes by id and refers to other nodes with "$id":
//
//	name: pricing
//	nodes:
//	  - id: price
//	    kind: Constant
//	    args: [100]
//	  - id: total
//	    kind: BinaryOp
//	    args: ["$price", mul, 3]
//	outputs: [total]
package graph
