package data

import (
	"fmt"

	"mindnoscape/web-app/src/pkg/model"
)

// NormalizeDocument checks the graph invariants of a stored mind map and
// drops duplicate connection pairs. Violations wrap ErrInvalidDocument.
func NormalizeDocument(m *model.Mindmap) error {
	ids := make(map[string]struct{}, len(m.Nodes))
	roots := 0
	for _, n := range m.Nodes {
		if n.ID == "" {
			return fmt.Errorf("%w: node without id", ErrInvalidDocument)
		}
		if _, dup := ids[n.ID]; dup {
			return fmt.Errorf("%w: duplicate node id %q", ErrInvalidDocument, n.ID)
		}
		ids[n.ID] = struct{}{}
		if n.IsRoot {
			roots++
		}
	}
	if roots != 1 {
		return fmt.Errorf("%w: expected exactly one root node, found %d", ErrInvalidDocument, roots)
	}

	seen := make(map[model.Connection]struct{}, len(m.Connections))
	conns := make([]model.Connection, 0, len(m.Connections))
	for _, c := range m.Connections {
		if _, ok := ids[c.From]; !ok {
			return fmt.Errorf("%w: connection references unknown node %q", ErrInvalidDocument, c.From)
		}
		if _, ok := ids[c.To]; !ok {
			return fmt.Errorf("%w: connection references unknown node %q", ErrInvalidDocument, c.To)
		}
		if c.From == c.To {
			return fmt.Errorf("%w: node %q connected to itself", ErrInvalidDocument, c.From)
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		conns = append(conns, c)
	}
	m.Connections = conns
	return nil
}
