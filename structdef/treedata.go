package structdef

import (
	"fmt"
	"strings"

	"github.com/npillmayer/fhirtree/profile"
	"github.com/npillmayer/fhirtree/tree"
	tp "github.com/xlab/treeprint"
)

// TreeData owns the tree of one view (snapshot or differential) of a profile.
// It has exactly one root, set at construction.
type TreeData struct {
	t   *tree.Tree[*content]
	cfg *profile.Config
}

func newTreeData(root *content, cfg *profile.Config) *TreeData {
	if cfg == nil {
		cfg = profile.DefaultConfig()
	}
	return &TreeData{t: tree.New(root), cfg: cfg}
}

// Root returns the root node.
func (td *TreeData) Root() Node {
	return Node{td: td, id: td.t.Root()}
}

// Config returns the configuration the tree was built with.
func (td *TreeData) Config() *profile.Config {
	return td.cfg
}

func (td *TreeData) String() string {
	return fmt.Sprintf("(TreeData %s #nodes=%d)", td.Root().Path(), td.Size())
}

// Size returns the number of nodes reachable from the root.
func (td *TreeData) Size() int {
	return td.t.Size(td.t.Root())
}

func (td *TreeData) addChild(parent Node, c *content) Node {
	return Node{td: td, id: td.t.AddChild(parent.id, c)}
}

// remove cuts a node and its sub-tree off its parent.
func (td *TreeData) remove(n Node) {
	td.t.Isolate(n.id)
}

// --- Iteration --------------------------------------------------------------

// Iterator walks a tree depth first, pre-order, children in order.
//
//	it := td.Iterate()
//	for it.Next() {
//	    node := it.Node()
//	}
type Iterator struct {
	td *TreeData
	it *tree.Iterator[*content]
}

// Iterate returns a fresh iterator over the whole tree.
func (td *TreeData) Iterate() *Iterator {
	return td.IterateFrom(td.Root())
}

// IterateFrom returns a fresh iterator over the sub-tree starting at (and
// including) n. n must belong to td.
func (td *TreeData) IterateFrom(n Node) *Iterator {
	if n.td != td {
		return &Iterator{td: td}
	}
	return &Iterator{td: td, it: td.t.Iterate(n.id)}
}

// Next advances the iterator.
func (it *Iterator) Next() bool {
	return it.it != nil && it.it.Next()
}

// Node is the node the iterator rests on.
func (it *Iterator) Node() Node {
	return Node{td: it.td, id: it.it.Node()}
}

// Nodes collects all nodes in iteration order.
func (td *TreeData) Nodes() []Node {
	var nodes []Node
	it := td.Iterate()
	for it.Next() {
		nodes = append(nodes, it.Node())
	}
	return nodes
}

// Paths collects the paths of all nodes in iteration order.
func (td *TreeData) Paths() []string {
	var paths []string
	it := td.Iterate()
	for it.Next() {
		paths = append(paths, it.Node().Path())
	}
	return paths
}

// Find collects the nodes of a sub-tree, including its start node, with a given path.
func (td *TreeData) Find(from Node, path string) []Node {
	if from.td != td {
		return nil
	}
	ids, err := td.t.DescendantsWith(from.id, true, pathIs(path))
	if err != nil {
		return nil
	}
	nodes := make([]Node, len(ids))
	for i, id := range ids {
		nodes[i] = Node{td: td, id: id}
	}
	return nodes
}

// --- Debugging --------------------------------------------------------------

// Dump renders the tree structure for debugging.
func (td *TreeData) Dump() string {
	p := tp.New()
	dump(p, td.Root())
	return p.String()
}

func dump(p tp.Tree, n Node) {
	if n.ChildCount() == 0 {
		p.AddNode(label(n))
		return
	}
	branch := p.AddBranch(label(n))
	for _, ch := range n.Children() {
		dump(branch, ch)
	}
}

func label(n Node) string {
	var b strings.Builder
	b.WriteString(n.DisplayName())
	if r, ok := n.Real(); ok {
		b.WriteString(" ")
		b.WriteString(r.cardinality.String())
		b.WriteString(" ")
		b.WriteString(r.dataType.String())
	} else {
		b.WriteString(" (dummy)")
	}
	return b.String()
}

// DumpToTrace writes the tree structure, one indented line per node, to the trace.
func (td *TreeData) DumpToTrace() {
	it := td.Iterate()
	for it.Next() {
		n := it.Node()
		indent := strings.Repeat("\t", strings.Count(n.Path(), "."))
		tracer().Debugf("%s%s", indent, n.DisplayName())
	}
}
