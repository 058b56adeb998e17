package structdef

import (
	"strings"

	"github.com/npillmayer/fhirtree/diag"
)

// LinkKey selects what a link reference is matched on.
type LinkKey int

const (
	LinkByName LinkKey = iota // logical name
	LinkByID                  // stable id
)

func (k LinkKey) String() string {
	if k == LinkByID {
		return "id"
	}
	return "name"
}

// ResolveLinks binds nodes declaring a linked node, first by name, then by id.
// Both bindings are kept independently.
func (td *TreeData) ResolveLinks(sink diag.Sink) {
	td.ResolveLinksBy(LinkByName, sink)
	td.ResolveLinksBy(LinkByID, sink)
}

// ResolveLinksBy binds nodes declaring a linked node by the given key.
//
// Anomalies are reported to sink: a link to the declaring node itself
// (LinkReferencesItself), a link on a node with a fixed value
// (FixedValueWithLinkedNode), a link without a target (MissingReferencedNode).
// If several nodes declare the same id or name, DuplicateLinkTarget is
// reported and links to it are left unbound.
func (td *TreeData) ResolveLinksBy(key LinkKey, sink diag.Sink) {
	if sink == nil {
		sink = diag.Discard
	}
	targets := make(map[string]Node)
	duplicates := make(map[string]bool)
	expected := make(map[string][]Node)
	var order []string // referenced keys in order of first reference
	//
	it := td.Iterate()
	for it.Next() {
		n := it.Node()
		rn, ok := n.Real()
		if !ok {
			continue // placeholders declare nothing; their backup nodes do
		}
		own, ref := rn.linkKeys(key)
		if own != "" {
			if prev, exists := targets[own]; exists {
				duplicates[own] = true
				sink.Emit(diag.DuplicateLinkTarget, "Nodes "+prev.Path()+" and "+n.Path()+
					" share the "+key.String()+" "+own)
			}
			targets[own] = n
		}
		if ref == "" {
			continue
		}
		if _, seen := expected[ref]; !seen {
			order = append(order, ref)
		}
		expected[ref] = append(expected[ref], n)
		if own == ref {
			sink.Emit(diag.LinkReferencesItself, "Link "+n.Path()+" references itself ("+own+")")
		}
		if fixed, ok := rn.Fixed(); ok {
			sink.Emit(diag.FixedValueWithLinkedNode, "Node "+n.Path()+" has a fixed value ("+fixed+
				") and a linked node ("+ref+")")
		}
	}
	//
	for _, ref := range order {
		linking := expected[ref]
		target, found := targets[ref]
		switch {
		case duplicates[ref]:
			sink.Emit(diag.DuplicateLinkTarget, "Linked node(s) at "+joinPaths(linking)+
				" left unbound, target "+key.String()+" is ambiguous ("+ref+")")
		case !found:
			sink.Emit(diag.MissingReferencedNode, "Linked node(s) at "+joinPaths(linking)+
				" missing target ("+ref+")")
		default:
			for _, n := range linking {
				rn, _ := n.Real()
				rn.setLink(key, target)
			}
		}
	}
	tracer().Debugf("resolved %d %s link target(s) in %s", len(order), key, td.Root().Path())
}

func (r *RealNode) linkKeys(key LinkKey) (own, ref string) {
	if key == LinkByID {
		return r.id, r.linkedID
	}
	return r.name, r.linkedName
}

func (r *RealNode) setLink(key LinkKey, target Node) {
	if key == LinkByID {
		r.linkedByID = target
	} else {
		r.linkedByName = target
	}
}

func joinPaths(nodes []Node) string {
	paths := make([]string, len(nodes))
	for i, n := range nodes {
		paths[i] = n.Path()
	}
	return strings.Join(paths, ", ")
}
