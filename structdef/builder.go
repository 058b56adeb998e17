package structdef

import (
	"strings"

	"github.com/npillmayer/fhirtree/diag"
	"github.com/npillmayer/fhirtree/profile"
)

// Builder creates trees from pre-order sorted element lists.
type Builder struct {
	cfg        *profile.Config
	classifier profile.ExtensionClassifier
	sink       diag.Sink
	strict     bool // placeholders forbidden
}

// NewBuilder creates a builder. classifier and sink may be nil.
func NewBuilder(cfg *profile.Config, classifier profile.ExtensionClassifier, sink diag.Sink) *Builder {
	if cfg == nil {
		cfg = profile.DefaultConfig()
	}
	if classifier == nil {
		classifier = profile.NoExtensions
	}
	if sink == nil {
		sink = diag.Discard
	}
	return &Builder{cfg: cfg, classifier: classifier, sink: sink}
}

// Strict returns a copy of the builder which rejects element lists that
// omit ancestors. Snapshot trees are built in strict mode.
func (b *Builder) Strict(strict bool) *Builder {
	c := *b
	c.strict = strict
	return &c
}

// BuildSnapshot builds a tree for a snapshot list, strict if so configured.
func (b *Builder) BuildSnapshot(elements []profile.Element) (*TreeData, error) {
	return b.Strict(b.cfg.StrictSnapshot).Build(elements)
}

// BuildDifferential builds a tree for a differential list, strict if so configured.
func (b *Builder) BuildDifferential(elements []profile.Element) (*TreeData, error) {
	return b.Strict(b.cfg.StrictDifferential).Build(elements)
}

// Build consumes an ordered list of elements. The first element is the root.
// For every further element, the builder searches the chain of the most
// recently added node and its ancestors for the nearest node whose path is a
// prefix of the element's path. Missing intermediate path segments are bridged
// by placeholder nodes, unless the builder is strict.
func (b *Builder) Build(elements []profile.Element) (*TreeData, error) {
	if len(elements) == 0 {
		return nil, Structural(ErrEmptyElementList, "", "cannot build a tree without elements")
	}
	rootPath := elements[0].Path
	if rootPath == "" || strings.HasPrefix(rootPath, ".") || strings.HasSuffix(rootPath, ".") {
		return nil, Structural(ErrMalformedTree, rootPath, "invalid root path")
	}
	root, err := b.NewRealNode(&elements[0], true)
	if err != nil {
		return nil, err
	}
	td := newTreeData(&content{path: rootPath, real: root}, b.cfg)
	current := td.Root()
	for i := 1; i < len(elements); i++ {
		el := &elements[i]
		if err := checkPath(el.Path); err != nil {
			return nil, err
		}
		anc := current
		for anc.Valid() && !profile.IsPathPrefix(anc.Path(), el.Path) {
			anc, _ = anc.Parent()
		}
		if !anc.Valid() {
			return nil, Structural(ErrMalformedTree, el.Path,
				"element #%d cannot be attached below %s", i, current.Path())
		}
		segments := strings.Split(el.Path[len(anc.Path())+1:], ".")
		for _, segment := range segments[:len(segments)-1] {
			if b.strict {
				return nil, Structural(ErrMalformedTree, el.Path,
					"ancestor %s.%s is not defined", anc.Path(), segment)
			}
			anc = td.addChild(anc, &content{path: anc.Path() + "." + segment})
			tracer().Debugf("inserted dummy node %s", anc.Path())
		}
		rn, err := b.NewRealNode(el, false)
		if err != nil {
			return nil, err
		}
		current = td.addChild(anc, &content{path: el.Path, real: rn})
	}
	tracer().Debugf("built tree %s with %d nodes", rootPath, td.Size())
	return td, nil
}

func checkPath(path string) error {
	if path == "" {
		return Structural(ErrMalformedTree, path, "element without path")
	}
	for _, segment := range strings.Split(path, ".") {
		if segment == "" {
			return Structural(ErrMalformedTree, path, "empty path segment")
		}
	}
	return nil
}

// NewRealNode creates the data of a real node from an element.
func (b *Builder) NewRealNode(el *profile.Element, isRoot bool) (*RealNode, error) {
	card, err := el.Cardinality()
	if err != nil {
		return nil, Structural(ErrMalformedTree, el.Path, "%v", err)
	}
	dataType, err := b.collapseDataTypes(el)
	if err != nil {
		return nil, err
	}
	r := &RealNode{
		id:           el.ID,
		name:         el.Name,
		sliceName:    el.SliceName,
		cardinality:  card,
		dataType:     dataType,
		typeCodes:    el.TypeCodes(),
		flags:        el.Flags,
		slicing:      el.Slicing,
		fixed:        el.Fixed,
		example:      el.Example,
		defaultValue: el.Default,
		binding:      el.Binding,
		constraints:  append([]profile.Constraint(nil), el.Constraints...),
		aliases:      el.Aliases,
		linkedName:   el.LinkedName,
		linkedID:     el.LinkedID,
		short:        el.Short,
		definition:   el.Definition,
		requirements: el.Requirements,
		comments:     el.Comments,
	}
	if !isRoot { // the root carries no type links
		r.typeProfiles = el.TypeProfiles()
	}
	if len(r.constraints) > 0 {
		r.flags.Constrained = true
	}
	b.checkConstraints(el)
	r.extensionType = b.classifier.ClassifyExtension(el)
	return r, nil
}

// collapseDataTypes reduces the declared types to one data type. Type entries
// sharing a code, e.g. references to different targets, count as one type.
func (b *Builder) collapseDataTypes(el *profile.Element) (DataType, error) {
	switch codes := distinct(el.TypeCodes()); {
	case len(codes) == 0:
		return DataType{Category: profile.CategoryDelegated}, nil
	case len(codes) == 1:
		return DataType{Code: codes[0], Category: b.cfg.Categorize(codes[0])}, nil
	case b.cfg.IsChoicePath(el.Path):
		return DataType{Category: profile.CategoryChoice}, nil
	default:
		return DataType{}, Structural(ErrInvalidDataTypes, el.Path,
			"found %d data types for a non-choice element", len(codes))
	}
}

func (b *Builder) checkConstraints(el *profile.Element) {
	conditions := make(map[string]bool, len(el.Conditions))
	for _, c := range el.Conditions {
		conditions[c] = true
	}
	for _, c := range el.Constraints {
		if !conditions[c.Key] {
			b.sink.Emit(diag.ConstraintWithoutCondition,
				"Constraint "+c.Key+" doesn't have an associated condition pointing at it")
		}
	}
	at := el.ID
	if at == "" {
		at = el.Path
	}
	for i := 0; i < len(el.Constraints); i++ {
		for j := i + 1; j < len(el.Constraints); j++ {
			if el.Constraints[i].Key == el.Constraints[j].Key {
				b.sink.Emit(diag.DuplicateConstraintKeys,
					"Node constraints with duplicate keys: '"+el.Constraints[i].Key+"' for node "+at)
			}
		}
	}
}

func distinct(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	unique := codes[:0:0]
	for _, c := range codes {
		if !seen[c] {
			seen[c] = true
			unique = append(unique, c)
		}
	}
	return unique
}
