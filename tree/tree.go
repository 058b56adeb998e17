package tree

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"errors"
)

// ErrInvalidFilter is returned if a predicate or action is nil.
var ErrInvalidFilter = errors.New("filter stage is invalid")

// ErrUnknownNode is returned if a walk starts at a node which is not part of the tree.
var ErrUnknownNode = errors.New("cannot walk from unknown node")

// --- Iterator ----------------------------------------------------------

// Iterator traverses a (sub-)tree depth first, visiting a node before any of
// its children and children in the order stored.
//
// An iterator tolerates removal of children which have not been visited yet,
// as it re-reads the live child list of a node every time it advances.
type Iterator[T any] struct {
	tree    *Tree[T]
	start   NodeID
	chain   []nodeAndChildIndex // each node down the tree to the current node
	current NodeID
}

type nodeAndChildIndex struct {
	id   NodeID
	next int // index of next child to visit
}

// Iterate creates a fresh iterator for the sub-tree starting at (and
// including) start.
func (t *Tree[T]) Iterate(start NodeID) *Iterator[T] {
	return &Iterator[T]{tree: t, start: start, current: None}
}

// Next advances the iterator. It returns false if there are no more nodes.
func (it *Iterator[T]) Next() bool {
	if it == nil || !it.tree.Valid(it.start) {
		return false
	}
	if it.current == None && len(it.chain) == 0 {
		it.chain = append(it.chain, nodeAndChildIndex{id: it.start})
		it.current = it.start
		return true
	}
	for len(it.chain) > 0 {
		top := &it.chain[len(it.chain)-1]
		children := it.tree.nodes[top.id].children
		if top.next < len(children) {
			child := children[top.next]
			top.next++
			it.chain = append(it.chain, nodeAndChildIndex{id: child})
			it.current = child
			return true
		}
		it.chain = it.chain[:len(it.chain)-1]
	}
	it.current = None
	it.start = None // exhausted
	return false
}

// Node returns the node the iterator currently rests on.
func (it *Iterator[T]) Node() NodeID {
	return it.current
}

// All collects the handles of a sub-tree in pre-order.
func (t *Tree[T]) All(start NodeID) []NodeID {
	var ids []NodeID
	it := t.Iterate(start)
	for it.Next() {
		ids = append(ids, it.Node())
	}
	return ids
}

// --- Predicates -------------------------------------------------------------

// Predicate is a function type to match against nodes of a tree.
// It is used as an argument for various navigation functions to
// collect a selection of nodes.
// test is the node under test, origin is the node the search started from.
type Predicate[T any] func(t *Tree[T], test NodeID, origin NodeID) (bool, error)

// Whatever is a predicate to match anything (see type Predicate).
// It is useful to match the first node in a given direction.
func Whatever[T any]() Predicate[T] {
	return func(t *Tree[T], test NodeID, origin NodeID) (bool, error) {
		return true, nil
	}
}

// NodeIsLeaf is a predicate to match leafs of a tree.
func NodeIsLeaf[T any]() Predicate[T] {
	return func(t *Tree[T], test NodeID, origin NodeID) (bool, error) {
		return t.ChildCount(test) == 0, nil
	}
}

// PayloadMatches is a predicate to match nodes by a test on their payload.
func PayloadMatches[T any](f func(T) bool) Predicate[T] {
	return func(t *Tree[T], test NodeID, origin NodeID) (bool, error) {
		return f(t.Payload(test)), nil
	}
}

// AncestorWith finds the nearest ancestor matching the given predicate.
// The search does not include the start node. If no ancestor matches,
// None is returned without an error.
func (t *Tree[T]) AncestorWith(id NodeID, predicate Predicate[T]) (NodeID, error) {
	if predicate == nil {
		return None, ErrInvalidFilter
	}
	if !t.Valid(id) {
		return None, ErrUnknownNode
	}
	for anc := t.Parent(id); anc != None; anc = t.Parent(anc) {
		ok, err := predicate(t, anc, id)
		if err != nil {
			return None, err
		}
		if ok {
			return anc, nil
		}
	}
	return None, nil // no matching ancestor found, not an error
}

// DescendantsWith finds descendants matching a predicate, in pre-order.
// If includeStart is set, the start node is tested as well.
func (t *Tree[T]) DescendantsWith(id NodeID, includeStart bool, predicate Predicate[T]) ([]NodeID, error) {
	if predicate == nil {
		return nil, ErrInvalidFilter
	}
	if !t.Valid(id) {
		return nil, ErrUnknownNode
	}
	var selection []NodeID
	it := t.Iterate(id)
	for it.Next() {
		n := it.Node()
		if n == id && !includeStart {
			continue
		}
		ok, err := predicate(t, n, id)
		if err != nil {
			return selection, err
		}
		if ok {
			selection = append(selection, n)
		}
	}
	tracer().Debugf("descendants of %d: %d match(es)", id, len(selection))
	return selection, nil
}

// Action is a function type to operate on tree nodes.
type Action[T any] func(t *Tree[T], n NodeID, parent NodeID, position int) error

// TopDown traverses a tree starting at (and including) a given node.
// The traversal guarantees that parents are always processed before
// their children.
//
// If the action function returns an error for a node,
// descending the branch below this node is aborted. The first error is
// returned after the traversal has finished.
func (t *Tree[T]) TopDown(id NodeID, action Action[T]) error {
	if action == nil {
		return ErrInvalidFilter
	}
	if !t.Valid(id) {
		return ErrUnknownNode
	}
	var first error
	var visit func(n, parent NodeID, position int)
	visit = func(n, parent NodeID, position int) {
		if err := action(t, n, parent, position); err != nil {
			if first == nil {
				first = err
			}
			return // do not descend further
		}
		for i := 0; i < t.ChildCount(n); i++ {
			ch, _ := t.Child(n, i)
			visit(ch, n, i)
		}
	}
	visit(id, t.Parent(id), t.IndexOfChild(t.Parent(id), id))
	return first
}

// PruneBottomUp removes, children before parents, every descendant of id for
// which the predicate holds. Removal happens after all of a node's children
// have been processed, so a node can be pruned because its children were.
func (t *Tree[T]) PruneBottomUp(id NodeID, predicate Predicate[T]) (int, error) {
	if predicate == nil {
		return 0, ErrInvalidFilter
	}
	if !t.Valid(id) {
		return 0, ErrUnknownNode
	}
	count := 0
	var prune func(n NodeID) error
	prune = func(n NodeID) error {
		for i := t.ChildCount(n) - 1; i >= 0; i-- {
			ch, _ := t.Child(n, i)
			if err := prune(ch); err != nil {
				return err
			}
			ok, err := predicate(t, ch, id)
			if err != nil {
				return err
			}
			if ok {
				t.Isolate(ch)
				count++
			}
		}
		return nil
	}
	err := prune(id)
	return count, err
}

// PruneTopDown removes every descendant of id for which the predicate holds,
// together with its sub-tree. Sub-trees of removed nodes are not visited.
func (t *Tree[T]) PruneTopDown(id NodeID, predicate Predicate[T]) (int, error) {
	if predicate == nil {
		return 0, ErrInvalidFilter
	}
	if !t.Valid(id) {
		return 0, ErrUnknownNode
	}
	count := 0
	var prune func(n NodeID) error
	prune = func(n NodeID) error {
		for i := t.ChildCount(n) - 1; i >= 0; i-- {
			ch, _ := t.Child(n, i)
			ok, err := predicate(t, ch, id)
			if err != nil {
				return err
			}
			if ok {
				t.Isolate(ch)
				count++
				continue
			}
			if err := prune(ch); err != nil {
				return err
			}
		}
		return nil
	}
	err := prune(id)
	return count, err
}

// Size returns the number of nodes reachable from id, including id.
// This is the 'rank' of a node.
func (t *Tree[T]) Size(id NodeID) int {
	r := 0
	it := t.Iterate(id)
	for it.Next() {
		r++
	}
	return r
}
