package tree

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"
)

/*
We manage an arena of mutable nodes. Each node carries a payload of type parameter T.
Nodes refer to each other by index into the arena, never by pointer, so a tree
with back-edges (child -> parent) does not need any special care when
sub-trees are cut off.
*/

// NodeID is the handle of a node within its tree.
type NodeID int

// None is the handle of no node at all, e.g. the parent of the root.
const None NodeID = -1

// node is the base type our tree is built of.
type node[T any] struct {
	parent   NodeID   // parent node of this node
	children []NodeID // ordered children
	payload  T        // nodes may carry a payload of arbitrary type
	attached bool     // false after isolation
}

// Tree is an arena of nodes with exactly one root.
// The root is set at construction time and never re-assigned.
type Tree[T any] struct {
	nodes []node[T]
}

// New creates a tree with a root node carrying a given payload.
func New[T any](rootPayload T) *Tree[T] {
	t := &Tree[T]{}
	t.nodes = append(t.nodes, node[T]{parent: None, payload: rootPayload, attached: true})
	return t
}

func (t *Tree[T]) String() string {
	return fmt.Sprintf("(Tree #nodes=%d)", len(t.nodes))
}

// Root returns the handle of the root node. It is always 0.
func (t *Tree[T]) Root() NodeID {
	return 0
}

// Valid returns true if id denotes a node of t.
func (t *Tree[T]) Valid(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes)
}

// AddChild creates a new node with a given payload and appends it to the
// children of parent. It returns the handle of the new node.
func (t *Tree[T]) AddChild(parent NodeID, payload T) NodeID {
	assertThat(t.Valid(parent), "cannot add child to unknown node %d", parent)
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, node[T]{parent: parent, payload: payload, attached: true})
	t.nodes[parent].children = append(t.nodes[parent].children, id)
	return id
}

// Payload returns the payload of a node.
func (t *Tree[T]) Payload(id NodeID) T {
	assertThat(t.Valid(id), "no node %d", id)
	return t.nodes[id].payload
}

// SetPayload replaces the payload of a node.
func (t *Tree[T]) SetPayload(id NodeID, payload T) {
	assertThat(t.Valid(id), "no node %d", id)
	t.nodes[id].payload = payload
}

// Parent returns the parent node or None (for the root of the tree).
func (t *Tree[T]) Parent(id NodeID) NodeID {
	if !t.Valid(id) {
		return None
	}
	return t.nodes[id].parent
}

// ChildCount returns the number of children-nodes for a node.
func (t *Tree[T]) ChildCount(id NodeID) int {
	if !t.Valid(id) {
		return 0
	}
	return len(t.nodes[id].children)
}

// Child returns the n-th child of a node.
func (t *Tree[T]) Child(id NodeID, n int) (NodeID, bool) {
	if !t.Valid(id) || n < 0 || n >= len(t.nodes[id].children) {
		return None, false
	}
	return t.nodes[id].children[n], true
}

// Children returns a copy of the child handles of a node.
func (t *Tree[T]) Children(id NodeID) []NodeID {
	if !t.Valid(id) {
		return nil
	}
	children := make([]NodeID, len(t.nodes[id].children))
	copy(children, t.nodes[id].children)
	return children
}

// IndexOfChild returns the index of a child within the list of children
// of its parent, or -1.
func (t *Tree[T]) IndexOfChild(parent, ch NodeID) int {
	if !t.Valid(parent) {
		return -1
	}
	for i, child := range t.nodes[parent].children {
		if child == ch {
			return i
		}
	}
	return -1
}

// Isolate removes a node from its parent. The node and its sub-tree stay
// in the arena but are no longer reachable from the root.
// The root cannot be isolated.
// Isolate returns the isolated node.
func (t *Tree[T]) Isolate(id NodeID) NodeID {
	if !t.Valid(id) || id == t.Root() {
		return id
	}
	p := t.nodes[id].parent
	if p != None {
		if i := t.IndexOfChild(p, id); i >= 0 {
			chs := t.nodes[p].children
			t.nodes[p].children = append(chs[:i:i], chs[i+1:]...)
		}
	}
	t.nodes[id].parent = None
	t.nodes[id].attached = false
	tracer().Debugf("isolated node %d from parent %d", id, p)
	return id
}

// Attached returns false for nodes that have been isolated. Descendants of
// an isolated node are reported as attached, but are unreachable nevertheless.
// Use Reachable to check reachability from the root.
func (t *Tree[T]) Attached(id NodeID) bool {
	return t.Valid(id) && t.nodes[id].attached
}

// Reachable returns true if a node can be reached from the root.
func (t *Tree[T]) Reachable(id NodeID) bool {
	for t.Valid(id) {
		if id == t.Root() {
			return true
		}
		if !t.nodes[id].attached {
			return false
		}
		id = t.nodes[id].parent
	}
	return false
}

// Depth returns the number of edges between a node and the root.
func (t *Tree[T]) Depth(id NodeID) int {
	d := 0
	for p := t.Parent(id); p != None; p = t.Parent(p) {
		d++
	}
	return d
}
