package structdef

import (
	"github.com/npillmayer/fhirtree/profile"
)

// SlicingDeclaration returns the slicing declaration relevant for a node:
// its own, or that of the slicing sibling it is a slice of.
func (n Node) SlicingDeclaration() (*profile.SlicingInfo, bool) {
	if s, ok := n.Slicing(); ok {
		return s, true
	}
	if sibling, ok := n.SlicingSibling(); ok {
		return sibling.Slicing()
	}
	return nil, false
}

// DiscriminatorPath returns the absolute path of a discriminator declared
// relative to this node.
func (n Node) DiscriminatorPath(discriminator string) string {
	return n.Path() + "." + discriminator
}

// IsExtensionURLDiscriminator is true if discriminator selects the defining
// URL of an extension node. Such discriminators compare URL sets
// (ExtensionURLs) instead of descendant nodes.
func (n Node) IsExtensionURLDiscriminator(discriminator string) bool {
	if !n.Valid() {
		return false
	}
	cfg := n.td.cfg
	return cfg.IsExtensionPathName(n.PathName()) && discriminator == cfg.ExtensionURLDiscriminator
}

// CacheSlicingDiscriminators resolves, for every real node affected by
// slicing, the unique descendant for each of its discriminator paths and
// stores it with the node. Nodes already cached are skipped, so repeated
// calls are harmless. It returns the number of nodes newly cached.
func (td *TreeData) CacheSlicingDiscriminators() int {
	count := 0
	it := td.Iterate()
	for it.Next() {
		n := it.Node()
		rn, ok := n.Real()
		if !ok || rn.discriminators != nil {
			continue
		}
		slicing, ok := n.SlicingDeclaration()
		if !ok {
			continue
		}
		rn.discriminators = make(map[string]Node, len(slicing.Discriminators))
		for _, disc := range slicing.Discriminators {
			if n.IsExtensionURLDiscriminator(disc) {
				continue
			}
			if d, ok := n.FindUniqueDescendant(n.DiscriminatorPath(disc)); ok {
				rn.discriminators[disc] = d
			}
		}
		count++
	}
	tracer().Debugf("cached discriminators for %d node(s) of %s", count, td.Root().Path())
	return count
}

// DiscriminatorNode returns the unique descendant at a discriminator path.
// Cached results are used as long as they are still part of the tree;
// otherwise the sub-tree is searched.
func (n Node) DiscriminatorNode(discriminator string) (Node, bool) {
	if rn, ok := n.Real(); ok && rn.discriminators != nil {
		if d, ok := rn.discriminators[discriminator]; ok && n.td.t.Reachable(d.id) {
			return d, true
		}
	}
	return n.FindUniqueDescendant(n.DiscriminatorPath(discriminator))
}

// MatchesOnDiscriminator compares two nodes on one discriminator.
//
// For extension URL discriminators the URL sets have to be equal. Otherwise
// both nodes must have a unique descendant at the discriminator path, and
// these must either both lack a fixed value or carry the same fixed value.
func MatchesOnDiscriminator(discriminator string, n, other Node) bool {
	if n.IsExtensionURLDiscriminator(discriminator) {
		return equalStrings(n.ExtensionURLs(), other.ExtensionURLs())
	}
	d, ok := n.DiscriminatorNode(discriminator)
	if !ok {
		return false
	}
	od, ok := other.DiscriminatorNode(discriminator)
	if !ok {
		return false
	}
	fixed, isFixed := d.FixedValue()
	otherFixed, otherIsFixed := od.FixedValue()
	if isFixed != otherIsFixed {
		return false
	}
	return fixed == otherFixed
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
