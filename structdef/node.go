package structdef

import (
	"fmt"
	"sort"

	"github.com/npillmayer/fhirtree/profile"
	"github.com/npillmayer/fhirtree/tree"
)

// content is the payload of every tree node. real is nil for placeholders.
type content struct {
	path   string
	real   *RealNode
	backup Node // snapshot counterpart, differential trees only
}

// Node is a handle on a node of a TreeData. The zero value denotes no node.
type Node struct {
	td *TreeData
	id tree.NodeID
}

// Valid is false for the zero Node.
func (n Node) Valid() bool {
	return n.td != nil && n.td.t.Valid(n.id)
}

// Tree returns the tree the node belongs to.
func (n Node) Tree() *TreeData {
	return n.td
}

// ID returns the arena handle of the node.
func (n Node) ID() tree.NodeID {
	return n.id
}

func (n Node) content() *content {
	return n.td.t.Payload(n.id)
}

// Path is the dot-separated element path.
func (n Node) Path() string {
	if !n.Valid() {
		return ""
	}
	return n.content().path
}

// PathName is the last segment of the path.
func (n Node) PathName() string {
	return profile.PathName(n.Path())
}

// IsDummy is true for placeholder nodes.
func (n Node) IsDummy() bool {
	return n.Valid() && n.content().real == nil
}

// Real returns the element data of a real node.
func (n Node) Real() (*RealNode, bool) {
	if !n.Valid() {
		return nil, false
	}
	r := n.content().real
	return r, r != nil
}

// IsRoot is true for the root of a tree.
func (n Node) IsRoot() bool {
	return n.Valid() && n.id == n.td.t.Root()
}

// Parent returns the parent node. It returns false for the root.
func (n Node) Parent() (Node, bool) {
	if !n.Valid() {
		return Node{}, false
	}
	p := n.td.t.Parent(n.id)
	if p == tree.None {
		return Node{}, false
	}
	return Node{td: n.td, id: p}, true
}

// Children returns the children in order.
func (n Node) Children() []Node {
	if !n.Valid() {
		return nil
	}
	ids := n.td.t.Children(n.id)
	children := make([]Node, len(ids))
	for i, id := range ids {
		children[i] = Node{td: n.td, id: id}
	}
	return children
}

// ChildCount returns the number of children.
func (n Node) ChildCount() int {
	if !n.Valid() {
		return 0
	}
	return n.td.t.ChildCount(n.id)
}

// Backup returns the snapshot node a differential node corresponds to.
func (n Node) Backup() (Node, bool) {
	if !n.Valid() {
		return Node{}, false
	}
	b := n.content().backup
	return b, b.Valid()
}

// HasBackup is true if a backup node has been assigned.
func (n Node) HasBackup() bool {
	_, ok := n.Backup()
	return ok
}

// SetBackup assigns the snapshot counterpart of a differential node.
func (n Node) SetBackup(backup Node) {
	if n.Valid() {
		n.content().backup = backup
	}
}

// Slicing returns the slicing declaration carried by a real node.
func (n Node) Slicing() (*profile.SlicingInfo, bool) {
	if r, ok := n.Real(); ok && r.slicing != nil {
		return r.slicing, true
	}
	return nil, false
}

// HasSlicing is true for real nodes carrying a slicing declaration.
func (n Node) HasSlicing() bool {
	_, ok := n.Slicing()
	return ok
}

// SliceName returns the slice name of a real node.
func (n Node) SliceName() (string, bool) {
	if r, ok := n.Real(); ok && r.sliceName != "" {
		return r.sliceName, true
	}
	return "", false
}

// FixedValue returns the fixed value of a real node.
func (n Node) FixedValue() (string, bool) {
	if r, ok := n.Real(); ok && r.fixed != nil {
		return *r.fixed, true
	}
	return "", false
}

// IsRemovedByProfile is true for real nodes with cardinality max = 0.
func (n Node) IsRemovedByProfile() bool {
	r, ok := n.Real()
	return ok && r.cardinality.Removed()
}

// ExtensionType returns the extension classification of a real node.
func (n Node) ExtensionType() profile.ExtensionType {
	if r, ok := n.Real(); ok {
		return r.extensionType
	}
	return profile.ExtensionNone
}

// HasSamePathSibling is true if another child of the same parent has the same
// path. This holds for slices as well as for repeated extension parameters,
// which come without a slicing declaration.
func (n Node) HasSamePathSibling() bool {
	p, ok := n.Parent()
	if !ok {
		return false
	}
	path := n.Path()
	for _, sibling := range p.Children() {
		if sibling.id != n.id && sibling.Path() == path {
			return true
		}
	}
	return false
}

// SlicingSibling returns the sibling declaring the slicing this node is a slice of.
func (n Node) SlicingSibling() (Node, bool) {
	p, ok := n.Parent()
	if !ok {
		return Node{}, false
	}
	path := n.Path()
	for _, sibling := range p.Children() {
		if sibling.id != n.id && sibling.Path() == path && sibling.HasSlicing() {
			return sibling, true
		}
	}
	return Node{}, false
}

// DisplayName is the path name, followed by ":" and the slice name for slices.
func (n Node) DisplayName() string {
	name := n.PathName()
	if slice, ok := n.SliceName(); ok {
		name += ":" + slice
	}
	return name
}

// FindUniqueDescendant finds the only descendant with a given path.
func (n Node) FindUniqueDescendant(path string) (Node, bool) {
	if !n.Valid() {
		return Node{}, false
	}
	ids, err := n.td.t.DescendantsWith(n.id, false, pathIs(path))
	if err != nil || len(ids) != 1 {
		return Node{}, false
	}
	return Node{td: n.td, id: ids[0]}, true
}

// ExtensionURLs is the set of URLs identifying an extension node: the
// profile URLs of its types or, lacking those, the fixed value of its url child.
// The result is sorted.
func (n Node) ExtensionURLs() []string {
	r, ok := n.Real()
	if !ok {
		return nil
	}
	urls := append([]string(nil), r.typeProfiles...)
	if len(urls) == 0 {
		urlPath := n.Path() + "." + n.td.cfg.ExtensionURLDiscriminator
		if u, ok := n.FindUniqueDescendant(urlPath); ok {
			if fixed, ok := u.FixedValue(); ok {
				urls = append(urls, fixed)
			}
		}
	}
	sort.Strings(urls)
	return urls
}

func (n Node) String() string {
	if !n.Valid() {
		return "(no node)"
	}
	if n.IsDummy() {
		return fmt.Sprintf("(dummy %s)", n.Path())
	}
	return fmt.Sprintf("(node %s %s)", n.Path(), n.content().real.cardinality)
}

func pathIs(path string) tree.Predicate[*content] {
	return tree.PayloadMatches(func(c *content) bool {
		return c.path == path
	})
}

// --- Real nodes -------------------------------------------------------------

// DataType is the collapsed data type of an element.
type DataType struct {
	Code     string // empty for delegated and choice types
	Category profile.TypeCategory
}

func (dt DataType) String() string {
	if dt.Code == "" {
		return string(dt.Category)
	}
	return dt.Code
}

// RealNode carries the data of an element definition.
type RealNode struct {
	id            string
	name          string
	sliceName     string
	cardinality   profile.Cardinality
	dataType      DataType
	typeCodes     []string
	typeProfiles  []string
	flags         profile.ResourceFlags
	slicing       *profile.SlicingInfo
	fixed         *string
	example       *string
	defaultValue  *string
	binding       *profile.Binding
	constraints   []profile.Constraint
	aliases       []string
	extensionType profile.ExtensionType
	linkedName    string
	linkedID      string
	short         string
	definition    string
	requirements  string
	comments      string
	// resolved later
	linkedByName   Node
	linkedByID     Node
	discriminators map[string]Node
}

func optional(s string) (string, bool) {
	return s, s != ""
}

// ID returns the element id, if any.
func (r *RealNode) ID() (string, bool) { return optional(r.id) }

// Name returns the logical name of the element, if any.
func (r *RealNode) Name() (string, bool) { return optional(r.name) }

// SliceName returns the slice name, if the element is a slice.
func (r *RealNode) SliceName() (string, bool) { return optional(r.sliceName) }

// Cardinality returns the declared cardinality.
func (r *RealNode) Cardinality() profile.Cardinality { return r.cardinality }

// DataType returns the data type the declared types collapse to.
func (r *RealNode) DataType() DataType { return r.dataType }

// TypeCodes returns the codes of the declared types, as declared.
func (r *RealNode) TypeCodes() []string { return r.typeCodes }

// TypeProfiles returns the profile URLs of the declared types.
func (r *RealNode) TypeProfiles() []string { return r.typeProfiles }

// Flags returns the resource flags.
func (r *RealNode) Flags() profile.ResourceFlags { return r.flags }

// Slicing returns the slicing declaration, or nil.
func (r *RealNode) Slicing() *profile.SlicingInfo { return r.slicing }

// Binding returns the value set binding, or nil.
func (r *RealNode) Binding() *profile.Binding { return r.binding }

// Constraints returns the constraints still in effect.
func (r *RealNode) Constraints() []profile.Constraint { return r.constraints }

// Aliases returns alternative names of the element.
func (r *RealNode) Aliases() []string { return r.aliases }

// ExtensionType returns the extension classification.
func (r *RealNode) ExtensionType() profile.ExtensionType { return r.extensionType }

// LinkedName returns the name of the linked node, if declared.
func (r *RealNode) LinkedName() (string, bool) { return optional(r.linkedName) }

// LinkedID returns the id of the linked node, if declared.
func (r *RealNode) LinkedID() (string, bool) { return optional(r.linkedID) }

// Short returns the short description, if any.
func (r *RealNode) Short() (string, bool) { return optional(r.short) }

// Definition returns the definition text, if any.
func (r *RealNode) Definition() (string, bool) { return optional(r.definition) }

// Requirements returns the requirements text, if any.
func (r *RealNode) Requirements() (string, bool) { return optional(r.requirements) }

// Comments returns the comments text, if any.
func (r *RealNode) Comments() (string, bool) { return optional(r.comments) }

// HasLink is true if the element declares a linked node.
func (r *RealNode) HasLink() bool { return r.linkedName != "" || r.linkedID != "" }

// IsRemovedByProfile is true for cardinality max = 0.
func (r *RealNode) IsRemovedByProfile() bool { return r.cardinality.Removed() }

func deref(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	return *s, true
}

// Fixed returns the fixed value, if any.
func (r *RealNode) Fixed() (string, bool) { return deref(r.fixed) }

// Example returns the example value, if any.
func (r *RealNode) Example() (string, bool) { return deref(r.example) }

// Default returns the default value, if any.
func (r *RealNode) Default() (string, bool) { return deref(r.defaultValue) }

// LinkedByName returns the node the name reference resolved to.
func (r *RealNode) LinkedByName() (Node, bool) { return r.linkedByName, r.linkedByName.Valid() }

// LinkedByID returns the node the id reference resolved to.
func (r *RealNode) LinkedByID() (Node, bool) { return r.linkedByID, r.linkedByID.Valid() }

// LinkedNode returns the resolved link target, preferring the id reference.
func (r *RealNode) LinkedNode() (Node, bool) {
	if r.linkedByID.Valid() {
		return r.linkedByID, true
	}
	return r.LinkedByName()
}
