package profile

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Unbounded is the maximum cardinality "*".
const Unbounded = -1

// ErrInvalidCardinality is returned for unparsable cardinality values.
var ErrInvalidCardinality = errors.New("invalid cardinality")

// Cardinality of an element. Max is either non-negative or Unbounded.
type Cardinality struct {
	Min int
	Max int
}

// ParseCardinality creates a cardinality from a minimum and a textual maximum
// ("*" or a non-negative integer).
func ParseCardinality(min int, max string) (Cardinality, error) {
	if min < 0 {
		return Cardinality{}, fmt.Errorf("%w: min=%d", ErrInvalidCardinality, min)
	}
	max = strings.TrimSpace(max)
	if max == "*" {
		return Cardinality{Min: min, Max: Unbounded}, nil
	}
	m, err := strconv.Atoi(max)
	if err != nil || m < 0 {
		return Cardinality{}, fmt.Errorf("%w: max=%q", ErrInvalidCardinality, max)
	}
	return Cardinality{Min: min, Max: m}, nil
}

// Removed is true if the maximum is exactly zero, i.e. the profile
// forbids the element.
func (c Cardinality) Removed() bool {
	return c.Max == 0
}

func (c Cardinality) String() string {
	if c.Max == Unbounded {
		return fmt.Sprintf("%d..*", c.Min)
	}
	return fmt.Sprintf("%d..%d", c.Min, c.Max)
}

// ResourceFlags are the boolean markers of an element.
type ResourceFlags struct {
	Summary     bool `yaml:"summary,omitempty"`
	Modifier    bool `yaml:"modifier,omitempty"`
	MustSupport bool `yaml:"mustSupport,omitempty"`
	Constrained bool `yaml:"constrained,omitempty"`
}

func (f ResourceFlags) String() string {
	var flags []string
	if f.Summary {
		flags = append(flags, "SUMMARY")
	}
	if f.Modifier {
		flags = append(flags, "MODIFIER")
	}
	if f.MustSupport {
		flags = append(flags, "MUSTSUPPORT")
	}
	if f.Constrained {
		flags = append(flags, "CONSTRAINED")
	}
	return "[" + strings.Join(flags, ", ") + "]"
}

// SlicingRule tells whether additional slices are allowed.
type SlicingRule string

const (
	SlicingClosed    SlicingRule = "closed"
	SlicingOpen      SlicingRule = "open"
	SlicingOpenAtEnd SlicingRule = "openAtEnd"
)

// SlicingInfo is the slicing declaration of an element.
// Discriminators are paths relative to the sliced element.
type SlicingInfo struct {
	Description    string      `yaml:"description,omitempty"`
	Discriminators []string    `yaml:"discriminators,omitempty"`
	Ordered        bool        `yaml:"ordered,omitempty"`
	Rules          SlicingRule `yaml:"rules,omitempty"`
}

// HasDiscriminator is true if path is one of the discriminator paths.
func (s *SlicingInfo) HasDiscriminator(path string) bool {
	for _, d := range s.Discriminators {
		if d == path {
			return true
		}
	}
	return false
}

// Constraint is an invariant attached to an element.
type Constraint struct {
	Key        string `yaml:"key"`
	Human      string `yaml:"human,omitempty"`
	Expression string `yaml:"expression,omitempty"`
	Severity   string `yaml:"severity,omitempty"` // "error" or "warning"
}

// Binding of an element to a value set.
type Binding struct {
	Strength    string `yaml:"strength,omitempty"`
	ValueSet    string `yaml:"valueSet,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// ExtensionType classifies extension elements.
type ExtensionType int

const (
	ExtensionNone ExtensionType = iota
	ExtensionSimple
	ExtensionComplex
)

func (x ExtensionType) String() string {
	switch x {
	case ExtensionSimple:
		return "simple"
	case ExtensionComplex:
		return "complex"
	}
	return "none"
}

// TypeRef is a declared data type of an element, with optional profile URLs.
type TypeRef struct {
	Code     string   `yaml:"code"`
	Profiles []string `yaml:"profiles,omitempty"`
}

// Element is one path-addressed element record from a snapshot or a differential.
type Element struct {
	Path         string        `yaml:"path"`
	ID           string        `yaml:"id,omitempty"`
	Name         string        `yaml:"name,omitempty"`
	SliceName    string        `yaml:"sliceName,omitempty"`
	Min          int           `yaml:"min"`
	Max          string        `yaml:"max"`
	Types        []TypeRef     `yaml:"types,omitempty"`
	Flags        ResourceFlags `yaml:"flags,omitempty"`
	Slicing      *SlicingInfo  `yaml:"slicing,omitempty"`
	Fixed        *string       `yaml:"fixed,omitempty"`
	Example      *string       `yaml:"example,omitempty"`
	Default      *string       `yaml:"default,omitempty"`
	Binding      *Binding      `yaml:"binding,omitempty"`
	Constraints  []Constraint  `yaml:"constraints,omitempty"`
	Conditions   []string      `yaml:"conditions,omitempty"`
	Aliases      []string      `yaml:"aliases,omitempty"`
	LinkedName   string        `yaml:"linkedName,omitempty"`
	LinkedID     string        `yaml:"linkedId,omitempty"`
	Short        string        `yaml:"short,omitempty"`
	Definition   string        `yaml:"definition,omitempty"`
	Requirements string        `yaml:"requirements,omitempty"`
	Comments     string        `yaml:"comments,omitempty"`
}

// Cardinality parses the min/max pair of an element. An empty max is read as "*".
func (el *Element) Cardinality() (Cardinality, error) {
	max := el.Max
	if max == "" {
		max = "*"
	}
	return ParseCardinality(el.Min, max)
}

// TypeCodes lists the codes of the declared types.
func (el *Element) TypeCodes() []string {
	codes := make([]string, 0, len(el.Types))
	for _, t := range el.Types {
		codes = append(codes, t.Code)
	}
	return codes
}

// TypeProfiles collects all profile URLs of all declared types.
func (el *Element) TypeProfiles() []string {
	var urls []string
	for _, t := range el.Types {
		urls = append(urls, t.Profiles...)
	}
	return urls
}

// HasTypeCode is true if one of the declared types has the given code.
func (el *Element) HasTypeCode(code string) bool {
	for _, t := range el.Types {
		if t.Code == code {
			return true
		}
	}
	return false
}

// PathName is the last segment of a dot-path.
func PathName(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// ParentPath strips the last segment of a dot-path. It returns an empty
// string for single-segment paths.
func ParentPath(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[:i]
	}
	return ""
}

// IsPathPrefix is true if ancestor is a strict dot-prefix of path.
func IsPathPrefix(ancestor, path string) bool {
	return len(path) > len(ancestor) &&
		strings.HasPrefix(path, ancestor) &&
		path[len(ancestor)] == '.'
}

// StructureDefinition is a profile with its two element lists.
type StructureDefinition struct {
	Name         string    `yaml:"name"`
	URL          string    `yaml:"url,omitempty"`
	Type         string    `yaml:"type,omitempty"`
	Snapshot     []Element `yaml:"snapshot"`
	Differential []Element `yaml:"differential,omitempty"`
}

// IsExtension is true for profiles of extensions.
func (sd *StructureDefinition) IsExtension() bool {
	if sd.Type != "" {
		return sd.Type == "Extension"
	}
	return len(sd.Snapshot) > 0 && sd.Snapshot[0].Path == "Extension"
}
