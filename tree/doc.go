/*
Package tree implements an arena-backed tree type.

Nodes live in a slice owned by a Tree and are addressed by stable integer
handles (NodeID). Every node stores the handle of its parent and an ordered
list of child handles. Removing a node from its parent (Isolate) just drops the
handle from the parent's child list; the orphaned sub-tree stays in the arena,
unreachable from the root, and is never visited again.

Trees are not safe for concurrent mutation. They are built, transformed and
read by a single owner; independent trees may of course be processed in
parallel.

Traversal

An Iterator walks a (sub-)tree depth first, pre-order, with children in the
order stored:

    it := t.Iterate(t.Root())
    for it.Next() {
        id := it.Node()
        ...
    }

Iterators never rely on pre-computed child counts. It is therefore safe to
remove children which have not been visited yet while iterating.

Navigation helpers:

   AncestorWith(id, predicate)     // nearest ancestor matching a predicate
   DescendantsWith(id, incl, pred) // all descendants matching a predicate, pre-order
   TopDown(id, action)             // visit parents before children, prune on error

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package tree

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'fhirtree.tree'.
func tracer() tracing.Trace {
	return tracing.Select("fhirtree.tree")
}

func assertThat(that bool, msg string, msgargs ...interface{}) {
	if !that {
		msg = fmt.Sprintf("fhirtree.tree: "+msg, msgargs...)
		panic(msg)
	}
}
