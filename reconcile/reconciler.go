package reconcile

import (
	"strings"

	"github.com/npillmayer/fhirtree/diag"
	"github.com/npillmayer/fhirtree/profile"
	"github.com/npillmayer/fhirtree/structdef"
)

// Reconciler assigns backup nodes to differential trees.
type Reconciler struct {
	cfg  *profile.Config
	sink diag.Sink
}

// NewReconciler creates a reconciler. cfg and sink may be nil.
func NewReconciler(cfg *profile.Config, sink diag.Sink) *Reconciler {
	if cfg == nil {
		cfg = profile.DefaultConfig()
	}
	if sink == nil {
		sink = diag.Discard
	}
	return &Reconciler{cfg: cfg, sink: sink}
}

// Reconcile sets the backup node of every node of diff, placeholders
// included, in pre-order. snap is not modified.
// The first node without a unique counterpart stops reconciliation with a
// *structdef.StructuralError.
func (r *Reconciler) Reconcile(diff, snap *structdef.TreeData) error {
	it := diff.Iterate()
	for it.Next() {
		n := it.Node()
		backup, err := r.FindBackup(n, snap)
		if err != nil {
			tracer().Infof("cannot reconcile %s: %v", n.Path(), err)
			return err
		}
		n.SetBackup(backup)
		tracer().Debugf("backup of %s is %s", n, backup)
	}
	return nil
}

// FindBackup identifies the snapshot node corresponding to a differential node.
// Ancestors of n must already have their backup nodes assigned.
func (r *Reconciler) FindBackup(n structdef.Node, snap *structdef.TreeData) (structdef.Node, error) {
	searchRoot, anchor := snap.Root(), structdef.Node{}
	if sliced, ok := firstSlicedAncestor(n); ok {
		b, ok := sliced.Backup()
		if !ok {
			return structdef.Node{}, structdef.Structural(structdef.ErrNoMatchingNode, n.Path(),
				"sliced ancestor %s has no backup node", sliced.Path())
		}
		searchRoot, anchor = b, sliced
	}
	candidates := snap.Find(searchRoot, n.Path())
	if len(candidates) == 0 {
		repaired, err := r.repairChoicePath(n, snap, searchRoot, anchor)
		if err != nil {
			return structdef.Node{}, err
		}
		candidates = []structdef.Node{repaired}
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}
	if slicing, ok := candidates[0].Slicing(); ok {
		return r.matchSlice(n, candidates, slicing)
	}
	if n.Path() == r.cfg.ExtensionParameterPath {
		// extension parameters repeat without a slicing declaration
		matches, err := filterOnSliceName(n, candidates)
		if err != nil {
			return structdef.Node{}, err
		}
		if len(matches) != 1 {
			return structdef.Node{}, structdef.Structural(structdef.ErrAmbiguousSliceMatch, n.Path(),
				"cannot tell %d extension parameters apart by name", len(matches))
		}
		return matches[0], nil
	}
	return structdef.Node{}, structdef.Structural(structdef.ErrAmbiguousSliceMatch, n.Path(),
		"%d snapshot nodes match, but the first is not a slicing node", len(candidates))
}

// matchSlice selects among a slicing node and its slices.
func (r *Reconciler) matchSlice(n structdef.Node, candidates []structdef.Node,
	slicing *profile.SlicingInfo) (structdef.Node, error) {
	//
	candidates = filterOnSlicing(n, candidates)
	if len(candidates) == 0 {
		return structdef.Node{}, structdef.Structural(structdef.ErrNoMatchingNode, n.Path(),
			"no snapshot slice matches")
	}
	candidates, err := filterOnSliceName(n, candidates)
	if err != nil {
		return structdef.Node{}, err
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}
	if n.IsDummy() {
		return structdef.Node{}, structdef.Structural(structdef.ErrAmbiguousSliceMatch, n.Path(),
			"%d slices match placeholder node", len(candidates))
	}
	var matches []structdef.Node
	for _, c := range candidates {
		if matchesOnDiscriminators(n, c, slicing.Discriminators) {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 0:
		return structdef.Node{}, structdef.Structural(structdef.ErrNoDiscriminatorMatch, n.Path(),
			"none of %d slices matches on discriminators %s", len(candidates),
			strings.Join(slicing.Discriminators, ", "))
	case 1:
		return matches[0], nil
	}
	return structdef.Node{}, structdef.Structural(structdef.ErrAmbiguousDiscriminatorMatch, n.Path(),
		"%d slices match on discriminators %s", len(matches), strings.Join(slicing.Discriminators, ", "))
}

func matchesOnDiscriminators(n, candidate structdef.Node, discriminators []string) bool {
	for _, disc := range discriminators {
		if !structdef.MatchesOnDiscriminator(disc, n, candidate) {
			return false
		}
	}
	return true
}

// filterOnSlicing keeps the candidates which carry a slicing declaration if
// and only if n does.
func filterOnSlicing(n structdef.Node, candidates []structdef.Node) []structdef.Node {
	var kept []structdef.Node
	for _, c := range candidates {
		if c.HasSlicing() == n.HasSlicing() {
			kept = append(kept, c)
		}
	}
	return kept
}

// filterOnSliceName keeps the candidates with the slice name of n. If n has
// no slice name, candidates are returned unchanged. Otherwise exactly one
// candidate has to remain.
func filterOnSliceName(n structdef.Node, candidates []structdef.Node) ([]structdef.Node, error) {
	name, ok := n.SliceName()
	if !ok {
		return candidates, nil
	}
	var matches []structdef.Node
	for _, c := range candidates {
		if s, ok := c.SliceName(); ok && s == name {
			matches = append(matches, c)
		}
	}
	if len(matches) != 1 {
		return nil, structdef.Structural(structdef.ErrAmbiguousSliceMatch, n.Path(),
			"%d snapshot nodes match slice name %q", len(matches), name)
	}
	return matches, nil
}

// firstSlicedAncestor finds the nearest proper ancestor affected by slicing:
// it is a slice, declares a slicing, or its backup node does either.
func firstSlicedAncestor(n structdef.Node) (structdef.Node, bool) {
	for anc, ok := n.Parent(); ok; anc, ok = anc.Parent() {
		if isSliced(anc) {
			return anc, true
		}
		if b, ok := anc.Backup(); ok && isSliced(b) {
			return anc, true
		}
	}
	return structdef.Node{}, false
}

// isSliced is true for slicing nodes and for nodes sharing their path with a
// sibling, i.e. slices and extension parameters.
func isSliced(n structdef.Node) bool {
	return n.HasSlicing() || n.HasSamePathSibling()
}

// repairChoicePath resolves a differential path which names a concrete type
// of a choice element, where the snapshot still carries the choice marker.
// The path is walked segment by segment below anchor (the differential node
// corresponding to searchRoot), or from the snapshot root if anchor is invalid.
func (r *Reconciler) repairChoicePath(n structdef.Node, snap *structdef.TreeData,
	searchRoot, anchor structdef.Node) (structdef.Node, error) {
	//
	path := n.Path()
	local, confirmed := searchRoot, ""
	segments := strings.Split(path, ".")
	if anchor.Valid() && profile.IsPathPrefix(anchor.Path(), path) {
		confirmed = searchRoot.Path()
		segments = strings.Split(path[len(anchor.Path())+1:], ".")
	}
	repaired := false
	for _, segment := range segments {
		possible := segment
		if confirmed != "" {
			possible = confirmed + "." + segment
		}
		matches := snap.Find(local, possible)
		if len(matches) == 0 {
			suffix, ok := r.cfg.ChoiceSuffix(possible)
			if !ok {
				return structdef.Node{}, structdef.Structural(structdef.ErrNoMatchingNode, path,
					"no snapshot node for %s, and not a resolved choice", possible)
			}
			possible = strings.TrimSuffix(possible, suffix) + r.cfg.ChoiceMarker
			matches = snap.Find(local, possible)
			if len(matches) == 0 {
				return structdef.Node{}, structdef.Structural(structdef.ErrNoMatchingNode, path,
					"no snapshot node for %s, even after choice substitution", possible)
			}
			repaired = true
		}
		if len(matches) > 1 {
			return structdef.Node{}, structdef.Structural(structdef.ErrAmbiguousSliceMatch, path,
				"%d snapshot nodes match %s", len(matches), possible)
		}
		local, confirmed = matches[0], possible
	}
	if !repaired { // cannot happen for paths without direct candidates
		return structdef.Node{}, structdef.Structural(structdef.ErrNoMatchingNode, path,
			"no snapshot node matches")
	}
	r.sink.Emit(diag.MisnamedSnapshotChoiceNode,
		"Differential node "+path+" matched snapshot node "+confirmed)
	return local, nil
}
