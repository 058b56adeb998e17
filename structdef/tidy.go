package structdef

import (
	"github.com/npillmayer/fhirtree/profile"
	"github.com/npillmayer/fhirtree/tree"
)

// Tidy runs the clean-up passes. The order matters: later passes rely on
// earlier ones having discarded structurally dead nodes.
func (td *TreeData) Tidy() {
	n := td.RemoveExtensionSlicingNodes()
	m := td.StripChildlessDummyNodes()
	c := td.RemoveUnwantedConstraints()
	x := td.StripComplexExtensionChildren()
	tracer().Debugf("tidy %s: %d extension slicing node(s), %d dummy node(s), %d constraint(s), %d extension child(ren) removed",
		td.Root().Path(), n, m, c, x)
}

// RemoveExtensionSlicingNodes removes extension nodes carrying a slicing
// declaration, together with their sub-trees. These are bookkeeping of the
// source format. Slicing nodes of modifier extensions are kept.
func (td *TreeData) RemoveExtensionSlicingNodes() int {
	count, _ := td.t.PruneTopDown(td.t.Root(), td.nodeIs(func(n Node) bool {
		return n.PathName() == td.cfg.ExtensionSlicingPathName && n.HasSlicing()
	}))
	return count
}

// StripChildlessDummyNodes removes placeholder nodes which, bottom up, have no
// children left.
func (td *TreeData) StripChildlessDummyNodes() int {
	count, _ := td.t.PruneBottomUp(td.t.Root(), td.nodeIs(func(n Node) bool {
		return n.IsDummy() && n.ChildCount() == 0
	}))
	return count
}

// RemoveUnwantedConstraints drops constraints with keys on the deny-list.
func (td *TreeData) RemoveUnwantedConstraints() int {
	count := 0
	it := td.Iterate()
	for it.Next() {
		rn, ok := it.Node().Real()
		if !ok || len(rn.constraints) == 0 {
			continue
		}
		kept := rn.constraints[:0]
		for _, c := range rn.constraints {
			if td.cfg.IsUnwantedConstraint(c.Key) {
				count++
				continue
			}
			kept = append(kept, c)
		}
		rn.constraints = kept
	}
	return count
}

// StripComplexExtensionChildren removes the inlined children of complex
// extension nodes other than the root. Their details are documented with
// the extension itself.
func (td *TreeData) StripComplexExtensionChildren() int {
	count := 0
	_ = td.t.TopDown(td.t.Root(), func(t *tree.Tree[*content], id tree.NodeID, parent tree.NodeID, position int) error {
		n := Node{td: td, id: id}
		if n.IsRoot() || n.ExtensionType() != profile.ExtensionComplex {
			return nil
		}
		for _, ch := range n.Children() {
			td.remove(ch)
			count++
		}
		return nil
	})
	return count
}

// StripRemovedElements removes all nodes with cardinality max = 0, together
// with their sub-trees. It is not part of Tidy and is applied only when
// removed elements should be hidden.
func (td *TreeData) StripRemovedElements() int {
	count, _ := td.t.PruneTopDown(td.t.Root(), td.nodeIs(func(n Node) bool {
		return n.IsRemovedByProfile()
	}))
	return count
}

func (td *TreeData) nodeIs(f func(Node) bool) tree.Predicate[*content] {
	return func(t *tree.Tree[*content], test tree.NodeID, origin tree.NodeID) (bool, error) {
		return f(Node{td: td, id: test}), nil
	}
}
