package graph

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrCycle = errors.New("graph contains a cycle")

// ExecutionOrder returns the node ids sorted so that every node comes after
// the sources of its inbound connections. The order is deterministic for a
// given graph: nodes without inbound connections run in declaration order.
// The graph must have passed Validate.
func (d *Data) ExecutionOrder() ([]uuid.UUID, error) {
	inDegree := make(map[uuid.UUID]int, len(d.Nodes))
	adjacent := make(map[uuid.UUID][]uuid.UUID, len(d.Nodes))
	for _, node := range d.Nodes {
		inDegree[node.ID] = 0
	}
	for _, conn := range d.Connections {
		adjacent[conn.From] = append(adjacent[conn.From], conn.To)
		inDegree[conn.To]++
	}

	// Seed with the nodes that have no inbound connections, in declaration order.
	ready := make([]uuid.UUID, 0, len(d.Nodes))
	for _, node := range d.Nodes {
		if inDegree[node.ID] == 0 {
			ready = append(ready, node.ID)
		}
	}

	order := make([]uuid.UUID, 0, len(d.Nodes))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)
		for _, next := range adjacent[id] {
			inDegree[next]--
			if inDegree[next] == 0 {
				ready = append(ready, next)
			}
		}
	}

	if len(order) != len(d.Nodes) {
		return nil, fmt.Errorf("%w: %d of %d nodes unreachable", ErrCycle, len(d.Nodes)-len(order), len(d.Nodes))
	}
	return order, nil
}
