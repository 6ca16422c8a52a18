// Package tree converts collaboration items between the flat transport form
// and the nested display form. Every walk uses an explicit stack, so catalog
// depth is bounded only by memory.
package tree

import (
	"sort"

	"github.com/designcomb/influenter/client/internal/types"
)

// Node is a collaboration item with its ordered children.
type Node struct {
	types.CollaborationItem
	Children []*Node `json:"children"`
}

func parentKey(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func sortLevel(level []*Node) {
	sort.SliceStable(level, func(i, j int) bool { return level[i].Order < level[j].Order })
}

// Build groups items by parent and returns the sorted forest. Items whose
// parent is absent from flat are promoted to roots. Items that can only
// reach themselves through parent links (cycles) are not reachable from any
// root and are left out.
func Build(flat []types.CollaborationItem) []*Node {
	nodes := make(map[string]*Node, len(flat))
	for _, it := range flat {
		n := &Node{CollaborationItem: it}
		nodes[it.ID] = n
	}

	// a duplicated id keeps its last record
	var roots []*Node
	placed := make(map[string]bool, len(nodes))
	for _, it := range flat {
		if placed[it.ID] {
			continue
		}
		placed[it.ID] = true
		n := nodes[it.ID]
		pid := parentKey(n.ParentID)
		parent, ok := nodes[pid]
		switch {
		case pid == "" || !ok:
			roots = append(roots, n)
		case pid == n.ID:
			// self-parented; unreachable
		default:
			parent.Children = append(parent.Children, n)
		}
	}

	sortLevel(roots)
	stack := append([]*Node(nil), roots...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		sortLevel(n.Children)
		stack = append(stack, n.Children...)
	}
	return roots
}

// Flatten walks the forest in pre-order and emits one record per node with
// parent_id set to its ancestor and order recomputed from its sibling index.
func Flatten(forest []*Node) []types.CollaborationItem {
	type frame struct {
		node   *Node
		parent *string
		index  int
	}

	var out []types.CollaborationItem
	stack := make([]frame, 0, len(forest))
	for i := len(forest) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: forest[i], index: i})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		it := f.node.CollaborationItem
		it.ParentID = clone(f.parent)
		it.Order = f.index
		out = append(out, it)

		id := it.ID
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: f.node.Children[i], parent: &id, index: i})
		}
	}
	if out == nil {
		out = []types.CollaborationItem{}
	}
	return out
}

// FindByID returns the node with id using depth-first search.
func FindByID(forest []*Node, id string) (*Node, bool) {
	stack := append([]*Node(nil), forest...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.ID == id {
			return n, true
		}
		stack = append(stack, n.Children...)
	}
	return nil, false
}

// DescendantIDs returns every id whose parent chain in flat passes through
// id, excluding id itself. Cycles are tolerated.
func DescendantIDs(flat []types.CollaborationItem, id string) []string {
	children := make(map[string][]string, len(flat))
	for _, it := range flat {
		p := parentKey(it.ParentID)
		if p != "" {
			children[p] = append(children[p], it.ID)
		}
	}

	var out []string
	seen := map[string]bool{id: true}
	stack := []string{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, c := range children[cur] {
			if seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c)
			stack = append(stack, c)
		}
	}
	return out
}

// RemoveSubtree returns flat without id and its descendants, plus the set of
// removed ids. flat is not modified.
func RemoveSubtree(flat []types.CollaborationItem, id string) ([]types.CollaborationItem, map[string]bool) {
	removed := map[string]bool{id: true}
	for _, d := range DescendantIDs(flat, id) {
		removed[d] = true
	}
	out := make([]types.CollaborationItem, 0, len(flat))
	for _, it := range flat {
		if !removed[it.ID] {
			out = append(out, it)
		}
	}
	return out, removed
}

// Reorder assigns order=index and parent=parentID to each listed item.
// Items not listed are copied unchanged.
func Reorder(flat []types.CollaborationItem, ids []string, parentID *string) []types.CollaborationItem {
	pos := make(map[string]int, len(ids))
	for i, id := range ids {
		pos[id] = i
	}
	out := make([]types.CollaborationItem, len(flat))
	for i, it := range flat {
		if idx, ok := pos[it.ID]; ok {
			it.Order = idx
			it.ParentID = clone(parentID)
		}
		out[i] = it
	}
	return out
}

// NextOrder returns max(order of items under parentID)+1, or 0 when the
// parent has no children.
func NextOrder(flat []types.CollaborationItem, parentID *string) int {
	want := parentKey(parentID)
	next := 0
	for _, it := range flat {
		if parentKey(it.ParentID) == want && it.Order+1 > next {
			next = it.Order + 1
		}
	}
	return next
}

// ReplaceID rewrites id and every parent reference to it.
func ReplaceID(flat []types.CollaborationItem, oldID, newID string) []types.CollaborationItem {
	out := make([]types.CollaborationItem, len(flat))
	for i, it := range flat {
		if it.ID == oldID {
			it.ID = newID
		}
		if it.ParentID != nil && *it.ParentID == oldID {
			it.ParentID = clone(&newID)
		}
		out[i] = it
	}
	return out
}

func clone(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
