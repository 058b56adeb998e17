package profile

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// TypeCategory classifies data type codes.
type TypeCategory string

const (
	CategoryPrimitive TypeCategory = "primitive"
	CategoryComplex   TypeCategory = "complex"
	CategoryReference TypeCategory = "reference"
	CategoryExtension TypeCategory = "extension"
	CategoryElement   TypeCategory = "element"
	CategoryResource  TypeCategory = "resource"
	CategoryDelegated TypeCategory = "delegated" // no type, use the linked node's
	CategoryChoice    TypeCategory = "choice"    // several types on a [x] element
	CategoryUnknown   TypeCategory = "unknown"
)

// Config holds the lookup tables for one schema format revision.
// Construct it once with DefaultConfig or LoadConfig and pass it to the
// builder, reconciler and pipeline. A Config is read-only after construction.
type Config struct {
	// type-name suffixes that may replace the choice marker in element paths
	ChoiceSuffixes []string `yaml:"choiceSuffixes"`
	// marker at the end of a choice-typed element's path
	ChoiceMarker string `yaml:"choiceMarker"`
	// path names of extension elements
	ExtensionPathNames []string `yaml:"extensionPathNames"`
	// path name of extension elements whose slicing nodes are dropped on tidying
	ExtensionSlicingPathName string `yaml:"extensionSlicingPathName"`
	// discriminator path identifying an extension by URL
	ExtensionURLDiscriminator string `yaml:"extensionUrlDiscriminator"`
	// path of extension parameters, which repeat without slicing metadata
	ExtensionParameterPath string `yaml:"extensionParameterPath"`
	// constraints which are inherited by every element and carry no information
	UnwantedConstraintKeys []string `yaml:"unwantedConstraintKeys"`
	// data type codes and their categories
	TypeCategories map[string]TypeCategory `yaml:"typeCategories"`
	// snapshot trees must not contain placeholder nodes
	StrictSnapshot bool `yaml:"strictSnapshot"`
	// differential trees must not contain placeholder nodes
	StrictDifferential bool `yaml:"strictDifferential"`
	// remove elements with cardinality max = 0 from the finished trees
	HideRemovedElements bool `yaml:"hideRemovedElements"`
	// number of profiles processed in parallel
	Workers int `yaml:"workers"`
}

// DefaultConfig returns the configuration for the STU3 format revision.
func DefaultConfig() *Config {
	cfg := &Config{
		ChoiceSuffixes: []string{"Integer", "Decimal", "DateTime", "Date", "Instant",
			"String", "Uri", "Boolean", "Code", "Markdown", "Base64Binary", "Coding",
			"CodeableConcept", "Attachment", "Identifier", "Quantity", "Range", "Period",
			"Ratio", "HumanName", "Address", "ContactPoint", "Timing", "Signature", "Reference"},
		ChoiceMarker:              "[x]",
		ExtensionPathNames:        []string{"extension", "modifierExtension"},
		ExtensionSlicingPathName:  "extension",
		ExtensionURLDiscriminator: "url",
		ExtensionParameterPath:    "Extension.extension",
		UnwantedConstraintKeys:    []string{"ele-1"},
		TypeCategories:            defaultTypeCategories(),
		StrictSnapshot:            true,
		StrictDifferential:        false,
		HideRemovedElements:       false,
		Workers:                   4,
	}
	return cfg
}

func defaultTypeCategories() map[string]TypeCategory {
	m := make(map[string]TypeCategory)
	for _, p := range []string{"boolean", "integer", "string", "decimal", "uri", "url",
		"canonical", "base64Binary", "instant", "date", "dateTime", "time", "code", "oid",
		"id", "markdown", "unsignedInt", "positiveInt", "uuid", "xhtml"} {
		m[p] = CategoryPrimitive
	}
	for _, c := range []string{"Address", "Age", "Annotation", "Attachment", "CodeableConcept",
		"Coding", "ContactPoint", "Count", "Distance", "Duration", "HumanName", "Identifier",
		"Money", "Period", "Quantity", "Range", "Ratio", "SampledData", "Signature", "Timing",
		"Meta", "Narrative", "Dosage", "ElementDefinition", "ContactDetail",
		"UsageContext", "RelatedArtifact", "DataRequirement", "ParameterDefinition",
		"TriggerDefinition", "SimpleQuantity"} {
		m[c] = CategoryComplex
	}
	m["Reference"] = CategoryReference
	m["Extension"] = CategoryExtension
	m["Element"] = CategoryElement
	m["BackboneElement"] = CategoryElement
	m["Resource"] = CategoryResource
	m["DomainResource"] = CategoryResource
	return m
}

// LoadConfig reads a YAML configuration. Keys which are not present keep
// their default values.
func LoadConfig(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("cannot read configuration: %w", err)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	tracer().Debugf("configuration loaded: %d choice suffixes, %d type codes",
		len(cfg.ChoiceSuffixes), len(cfg.TypeCategories))
	return cfg, nil
}

// ChoiceSuffix returns the longest recognized choice suffix a path ends in.
// The suffix must not make up the whole last path segment.
func (cfg *Config) ChoiceSuffix(path string) (string, bool) {
	name := PathName(path)
	best := ""
	for _, suffix := range cfg.ChoiceSuffixes {
		if len(name) > len(suffix) && strings.HasSuffix(name, suffix) && len(suffix) > len(best) {
			best = suffix
		}
	}
	return best, best != ""
}

// IsChoicePath is true if path ends in the choice marker.
func (cfg *Config) IsChoicePath(path string) bool {
	return strings.HasSuffix(path, cfg.ChoiceMarker)
}

// IsExtensionPathName is true if name is the path name of extension elements.
func (cfg *Config) IsExtensionPathName(name string) bool {
	for _, x := range cfg.ExtensionPathNames {
		if x == name {
			return true
		}
	}
	return false
}

// IsUnwantedConstraint is true for keys on the constraint deny-list.
func (cfg *Config) IsUnwantedConstraint(key string) bool {
	for _, k := range cfg.UnwantedConstraintKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Categorize returns the category of a data type code.
func (cfg *Config) Categorize(code string) TypeCategory {
	if c, ok := cfg.TypeCategories[code]; ok {
		return c
	}
	return CategoryUnknown
}
