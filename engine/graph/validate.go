package graph

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrInvalidGraph = errors.New("invalid graph")

// Validate checks the structural invariants a graph must satisfy before the
// graph system will accept it. The first violation found is returned.
func (d *Data) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: graph name is required", ErrInvalidGraph)
	}
	if d.Version == 0 || d.Version > DataVersion {
		return fmt.Errorf("%w: unsupported graph version %d", ErrInvalidGraph, d.Version)
	}

	seen := make(map[uuid.UUID]bool, len(d.Nodes))
	for _, node := range d.Nodes {
		if node == nil {
			return fmt.Errorf("%w: nil node", ErrInvalidGraph)
		}
		if node.ID == uuid.Nil {
			return fmt.Errorf("%w: node %q has no id", ErrInvalidGraph, node.Name)
		}
		if seen[node.ID] {
			return fmt.Errorf("%w: duplicate node id %s", ErrInvalidGraph, node.ID)
		}
		seen[node.ID] = true
		if node.Type == "" {
			return fmt.Errorf("%w: node %q has no type", ErrInvalidGraph, node.Name)
		}
	}

	for i, conn := range d.Connections {
		if conn == nil {
			return fmt.Errorf("%w: nil connection", ErrInvalidGraph)
		}
		if !seen[conn.From] {
			return fmt.Errorf("%w: connection %d references unknown source node %s", ErrInvalidGraph, i, conn.From)
		}
		if !seen[conn.To] {
			return fmt.Errorf("%w: connection %d references unknown target node %s", ErrInvalidGraph, i, conn.To)
		}
		if conn.From == conn.To {
			return fmt.Errorf("%w: connection %d connects node %s to itself", ErrInvalidGraph, i, conn.From)
		}
	}

	names := make(map[string]bool, len(d.Variables))
	for _, variable := range d.Variables {
		if variable == nil {
			return fmt.Errorf("%w: nil variable", ErrInvalidGraph)
		}
		if variable.Name == "" {
			return fmt.Errorf("%w: variable name is required", ErrInvalidGraph)
		}
		if names[variable.Name] {
			return fmt.Errorf("%w: duplicate variable %q", ErrInvalidGraph, variable.Name)
		}
		names[variable.Name] = true
		if _, found := variableTypeNames[variable.Type]; !found {
			return fmt.Errorf("%w: variable %q has unknown type %d", ErrInvalidGraph, variable.Name, variable.Type)
		}
	}

	for _, dep := range d.Dependencies {
		if dep == uuid.Nil {
			return fmt.Errorf("%w: nil dependency id", ErrInvalidGraph)
		}
	}
	return nil
}
