package employee

import "github.com/google/uuid"

type node struct {
	id        uuid.UUID
	managerID *uuid.UUID
	parent    int // index into Hierarchy.nodes, -1 when the manager is unknown or absent
}

// Hierarchy is a parent-pointer tree of the reporting lines, stored as an arena
// with an id index.
type Hierarchy struct {
	nodes []node
	index map[uuid.UUID]int
}

func NewHierarchy(emps []Employee) *Hierarchy {
	h := &Hierarchy{
		nodes: make([]node, len(emps)),
		index: make(map[uuid.UUID]int, len(emps)),
	}
	for i, e := range emps {
		h.nodes[i] = node{id: e.ID, managerID: e.ManagerID, parent: -1}
		h.index[e.ID] = i
	}
	for i := range h.nodes {
		if m := h.nodes[i].managerID; m != nil {
			if p, ok := h.index[*m]; ok {
				h.nodes[i].parent = p
			}
		}
	}
	return h
}

// ManagerChain lists managers from the direct manager upward. The walk stops at
// the top, at a manager missing from the directory, or when a cycle repeats.
func (h *Hierarchy) ManagerChain(employeeID uuid.UUID) []uuid.UUID {
	i, ok := h.index[employeeID]
	if !ok {
		return nil
	}

	var chain []uuid.UUID
	seen := map[uuid.UUID]bool{employeeID: true}
	for {
		n := h.nodes[i]
		if n.managerID == nil || seen[*n.managerID] {
			return chain
		}
		chain = append(chain, *n.managerID)
		seen[*n.managerID] = true
		if n.parent < 0 {
			return chain
		}
		i = n.parent
	}
}
