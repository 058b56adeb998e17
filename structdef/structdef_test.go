package structdef

import (
	"errors"
	"strings"
	"testing"

	"github.com/npillmayer/fhirtree/diag"
	"github.com/npillmayer/fhirtree/profile"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func el(path string, min int, max string) profile.Element {
	return profile.Element{Path: path, Min: min, Max: max}
}

func typed(e profile.Element, codes ...string) profile.Element {
	for _, c := range codes {
		e.Types = append(e.Types, profile.TypeRef{Code: c})
	}
	return e
}

func str(s string) *string {
	return &s
}

func TestBuildSnapshot(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fhirtree.structdef")
	defer teardown()
	//
	elements := []profile.Element{
		el("Patient", 0, "*"),
		typed(el("Patient.name", 0, "*"), "HumanName"),
		typed(el("Patient.name.family", 0, "1"), "string"),
		typed(el("Patient.name.given", 0, "*"), "string"),
		typed(el("Patient.birthDate", 0, "1"), "date"),
	}
	td, err := NewBuilder(nil, nil, nil).BuildSnapshot(elements)
	require.NoError(t, err)
	assert.Equal(t, 5, td.Size())
	assert.Equal(t, []string{"Patient", "Patient.name", "Patient.name.family",
		"Patient.name.given", "Patient.birthDate"}, td.Paths())
	family := td.Find(td.Root(), "Patient.name.family")
	require.Len(t, family, 1)
	p, ok := family[0].Parent()
	require.True(t, ok)
	assert.Equal(t, "Patient.name", p.Path())
	rn, ok := family[0].Real()
	require.True(t, ok)
	assert.Equal(t, "0..1", rn.Cardinality().String())
	assert.Equal(t, profile.CategoryPrimitive, rn.DataType().Category)
	t.Logf("tree =\n%s", td.Dump())
}

func TestBuildDifferentialInsertsDummies(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fhirtree.structdef")
	defer teardown()
	//
	elements := []profile.Element{
		el("Patient", 0, "*"),
		el("Patient.name.family", 1, "1"),
	}
	td, err := NewBuilder(nil, nil, nil).BuildDifferential(elements)
	require.NoError(t, err)
	assert.Equal(t, []string{"Patient", "Patient.name", "Patient.name.family"}, td.Paths())
	name := td.Find(td.Root(), "Patient.name")
	require.Len(t, name, 1)
	assert.True(t, name[0].IsDummy())
	_, ok := name[0].Real()
	assert.False(t, ok)
	assert.Contains(t, td.Dump(), "(dummy)")
}

func TestBuildStrictRejectsGaps(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fhirtree.structdef")
	defer teardown()
	//
	elements := []profile.Element{
		el("Patient", 0, "*"),
		el("Patient.name.family", 1, "1"),
	}
	_, err := NewBuilder(nil, nil, nil).BuildSnapshot(elements)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedTree))
	assert.True(t, IsStructural(err))
	assert.Equal(t, diag.StructuralError, EventKind(err))
}

func TestBuildMalformed(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fhirtree.structdef")
	defer teardown()
	//
	b := NewBuilder(nil, nil, nil)
	_, err := b.Build(nil)
	assert.True(t, errors.Is(err, ErrEmptyElementList))
	_, err = b.Build([]profile.Element{el("Patient", 0, "*"), el("Observation.code", 1, "1")})
	assert.True(t, errors.Is(err, ErrMalformedTree), "foreign root")
	_, err = b.Build([]profile.Element{el("Patient", 0, "*"), el("Patient..name", 1, "1")})
	assert.True(t, errors.Is(err, ErrMalformedTree), "empty segment")
	_, err = b.Build([]profile.Element{el("Patient", 0, "*"), el("Patient.name", 1, "lots")})
	assert.True(t, errors.Is(err, ErrMalformedTree), "bad cardinality")
	_, err = b.Build([]profile.Element{el("Patient", 0, "*"),
		typed(el("Patient.name", 0, "1"), "string", "HumanName")})
	assert.True(t, errors.Is(err, ErrInvalidDataTypes))
}

func TestCollapseChoiceTypes(t *testing.T) {
	elements := []profile.Element{
		el("Patient", 0, "*"),
		typed(el("Patient.deceased[x]", 0, "1"), "boolean", "dateTime"),
		el("Patient.link", 0, "*"),
	}
	td, err := NewBuilder(nil, nil, nil).Build(elements)
	require.NoError(t, err)
	choice, _ := td.Find(td.Root(), "Patient.deceased[x]")[0].Real()
	assert.Equal(t, profile.CategoryChoice, choice.DataType().Category)
	link, _ := td.Find(td.Root(), "Patient.link")[0].Real()
	assert.Equal(t, profile.CategoryDelegated, link.DataType().Category)
}

func TestCollapseMultiTargetReference(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fhirtree.structdef")
	defer teardown()
	//
	subject := el("Observation.subject", 0, "1")
	subject.Types = []profile.TypeRef{
		{Code: "Reference", Profiles: []string{"http://hl7.org/fhir/StructureDefinition/Patient"}},
		{Code: "Reference", Profiles: []string{"http://hl7.org/fhir/StructureDefinition/Group"}},
	}
	td, err := NewBuilder(nil, nil, nil).BuildSnapshot([]profile.Element{el("Observation", 0, "*"), subject})
	require.NoError(t, err)
	rn, ok := td.Find(td.Root(), "Observation.subject")[0].Real()
	require.True(t, ok)
	assert.Equal(t, "Reference", rn.DataType().Code)
	assert.Equal(t, profile.CategoryReference, rn.DataType().Category)
	assert.Equal(t, []string{"Reference", "Reference"}, rn.TypeCodes())
	assert.Len(t, rn.TypeProfiles(), 2)
	//
	mixed := typed(el("Observation.effective", 0, "1"), "dateTime", "Period", "dateTime")
	_, err = NewBuilder(nil, nil, nil).BuildSnapshot([]profile.Element{el("Observation", 0, "*"), mixed})
	assert.ErrorIs(t, err, ErrInvalidDataTypes)
}

func TestConstraintDiagnostics(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fhirtree.structdef")
	defer teardown()
	//
	c := &diag.Collector{Profile: "test"}
	e := el("Patient.name", 0, "*")
	e.Constraints = []profile.Constraint{{Key: "pat-1"}, {Key: "pat-1"}, {Key: "pat-2"}}
	e.Conditions = []string{"pat-1"}
	_, err := NewBuilder(nil, nil, c).Build([]profile.Element{el("Patient", 0, "*"), e})
	require.NoError(t, err)
	assert.Equal(t, 1, c.Count(diag.DuplicateConstraintKeys))
	assert.Equal(t, 1, c.Count(diag.ConstraintWithoutCondition))
}

func TestTidy(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fhirtree.structdef")
	defer teardown()
	//
	extSlicing := el("Patient.extension", 0, "*")
	extSlicing.Slicing = &profile.SlicingInfo{Discriminators: []string{"url"}, Rules: profile.SlicingOpen}
	constrained := el("Patient.active", 0, "1")
	constrained.Constraints = []profile.Constraint{{Key: "ele-1"}, {Key: "pat-9"}}
	constrained.Conditions = []string{"ele-1", "pat-9"}
	complexExt := typed(el("Patient.extension", 0, "1"), "Extension")
	complexExt.SliceName = "nationality"
	modifierSlicing := el("Patient.modifierExtension", 0, "*")
	modifierSlicing.Slicing = &profile.SlicingInfo{Discriminators: []string{"url"}, Rules: profile.SlicingOpen}
	elements := []profile.Element{
		el("Patient", 0, "*"),
		extSlicing,
		el("Patient.extension.url", 1, "1"),
		complexExt,
		el("Patient.extension.extension", 0, "*"),
		modifierSlicing,
		constrained,
		el("Patient.contact.name.family", 0, "1"), // creates dummies
	}
	classifier := classifyAll(profile.ExtensionComplex)
	td, err := NewBuilder(nil, classifier, nil).BuildDifferential(elements)
	require.NoError(t, err)
	require.Equal(t, 10, td.Size())
	//
	assert.Equal(t, 1, td.RemoveExtensionSlicingNodes())
	assert.Equal(t, 0, td.StripChildlessDummyNodes())
	assert.Equal(t, 1, td.RemoveUnwantedConstraints())
	assert.Equal(t, 1, td.StripComplexExtensionChildren())
	assert.Equal(t, []string{"Patient", "Patient.extension", "Patient.modifierExtension", "Patient.active",
		"Patient.contact", "Patient.contact.name", "Patient.contact.name.family"}, td.Paths(),
		"slicing of modifier extensions must be kept")
	active, _ := td.Find(td.Root(), "Patient.active")[0].Real()
	require.Len(t, active.Constraints(), 1)
	assert.Equal(t, "pat-9", active.Constraints()[0].Key)
	t.Logf("tree =\n%s", td.Dump())
}

func TestStripChildlessDummiesBottomUp(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fhirtree.structdef")
	defer teardown()
	//
	elements := []profile.Element{
		el("Patient", 0, "*"),
		el("Patient.contact.name.family", 0, "0"),
	}
	td, err := NewBuilder(nil, nil, nil).BuildDifferential(elements)
	require.NoError(t, err)
	assert.Equal(t, 1, td.StripRemovedElements())
	assert.Equal(t, 2, td.StripChildlessDummyNodes())
	assert.Equal(t, []string{"Patient"}, td.Paths())
}

func TestResolveLinks(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fhirtree.structdef")
	defer teardown()
	//
	contact := el("Patient.contact", 0, "*")
	contact.ID = "Patient.contact"
	contact.Name = "contact"
	linkByName := el("Patient.link", 0, "*")
	linkByName.LinkedName = "contact"
	linkByID := el("Patient.other", 0, "*")
	linkByID.LinkedID = "Patient.contact"
	linkByID.Fixed = str("x")
	self := el("Patient.self", 0, "1")
	self.Name = "self"
	self.LinkedName = "self"
	missing := el("Patient.missing", 0, "1")
	missing.LinkedID = "nowhere"
	elements := []profile.Element{el("Patient", 0, "*"), contact, linkByName, linkByID, self, missing}
	td, err := NewBuilder(nil, nil, nil).Build(elements)
	require.NoError(t, err)
	c := &diag.Collector{Profile: "test"}
	td.ResolveLinks(c)
	//
	target := td.Find(td.Root(), "Patient.contact")[0]
	rn, _ := td.Find(td.Root(), "Patient.link")[0].Real()
	linked, ok := rn.LinkedByName()
	require.True(t, ok)
	assert.Equal(t, target, linked)
	rn, _ = td.Find(td.Root(), "Patient.other")[0].Real()
	linked, ok = rn.LinkedNode()
	require.True(t, ok)
	assert.Equal(t, target.Path(), linked.Path())
	assert.Equal(t, 1, c.Count(diag.LinkReferencesItself))
	assert.Equal(t, 1, c.Count(diag.FixedValueWithLinkedNode))
	assert.Equal(t, 1, c.Count(diag.MissingReferencedNode))
	for _, e := range c.Events {
		t.Logf("event %s", e)
	}
}

func TestResolveLinksWithDuplicateTarget(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fhirtree.structdef")
	defer teardown()
	//
	a := el("Patient.a", 0, "1")
	a.Name = "twin"
	b := el("Patient.b", 0, "1")
	b.Name = "twin"
	l := el("Patient.l", 0, "1")
	l.LinkedName = "twin"
	td, err := NewBuilder(nil, nil, nil).Build([]profile.Element{el("Patient", 0, "*"), a, b, l})
	require.NoError(t, err)
	c := &diag.Collector{Profile: "test"}
	td.ResolveLinks(c)
	assert.Equal(t, 2, c.Count(diag.DuplicateLinkTarget))
	rn, _ := td.Find(td.Root(), "Patient.l")[0].Real()
	_, ok := rn.LinkedByName()
	assert.False(t, ok)
}

func observationComponents() []profile.Element {
	slicing := el("Observation.component", 0, "*")
	slicing.Slicing = &profile.SlicingInfo{Discriminators: []string{"code"}, Rules: profile.SlicingOpen}
	systolic := el("Observation.component", 1, "1")
	systolic.SliceName = "systolic"
	diastolic := el("Observation.component", 1, "1")
	diastolic.SliceName = "diastolic"
	sysCode := el("Observation.component.code", 1, "1")
	sysCode.Fixed = str("8480-6")
	diaCode := el("Observation.component.code", 1, "1")
	diaCode.Fixed = str("8462-4")
	return []profile.Element{
		el("Observation", 0, "*"),
		slicing,
		el("Observation.component.code", 1, "1"),
		systolic,
		sysCode,
		diastolic,
		diaCode,
	}
}

func TestCacheSlicingDiscriminators(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fhirtree.structdef")
	defer teardown()
	//
	td, err := NewBuilder(nil, nil, nil).BuildSnapshot(observationComponents())
	require.NoError(t, err)
	assert.Equal(t, 3, td.CacheSlicingDiscriminators())
	assert.Equal(t, 0, td.CacheSlicingDiscriminators(), "second call must not re-cache")
	components := td.Find(td.Root(), "Observation.component")
	require.Len(t, components, 3)
	assert.True(t, components[0].HasSlicing())
	decl, ok := components[1].SlicingSibling()
	require.True(t, ok)
	assert.Equal(t, components[0], decl)
	assert.True(t, components[1].HasSamePathSibling())
	assert.False(t, td.Root().HasSamePathSibling())
	s, ok := components[2].SlicingDeclaration()
	require.True(t, ok)
	assert.Equal(t, []string{"code"}, s.Discriminators)
	code, ok := components[1].DiscriminatorNode("code")
	require.True(t, ok)
	fixed, _ := code.FixedValue()
	assert.Equal(t, "8480-6", fixed)
	assert.False(t, MatchesOnDiscriminator("code", components[1], components[2]))
	assert.True(t, MatchesOnDiscriminator("code", components[1], components[1]))
	assert.Equal(t, "component:systolic", components[1].DisplayName())
}

func TestDiscriminatorCacheFollowsRemoval(t *testing.T) {
	td, err := NewBuilder(nil, nil, nil).BuildSnapshot(observationComponents())
	require.NoError(t, err)
	td.CacheSlicingDiscriminators()
	systolic := td.Find(td.Root(), "Observation.component")[1]
	code, ok := systolic.DiscriminatorNode("code")
	require.True(t, ok)
	td.remove(code)
	_, ok = systolic.DiscriminatorNode("code")
	assert.False(t, ok)
}

func TestExtensionURLs(t *testing.T) {
	withProfile := el("Patient.extension", 0, "1")
	withProfile.Types = []profile.TypeRef{{Code: "Extension", Profiles: []string{"http://x/b", "http://x/a"}}}
	inline := el("Patient.extension", 0, "1")
	url := el("Patient.extension.url", 1, "1")
	url.Fixed = str("http://x/c")
	td, err := NewBuilder(nil, nil, nil).Build([]profile.Element{el("Patient", 0, "*"), withProfile, inline, url})
	require.NoError(t, err)
	exts := td.Find(td.Root(), "Patient.extension")
	require.Len(t, exts, 2)
	assert.Equal(t, []string{"http://x/a", "http://x/b"}, exts[0].ExtensionURLs())
	assert.Equal(t, []string{"http://x/c"}, exts[1].ExtensionURLs())
	assert.True(t, exts[0].IsExtensionURLDiscriminator("url"))
	assert.False(t, exts[0].IsExtensionURLDiscriminator("code"))
}

func TestDumpLabels(t *testing.T) {
	td, err := NewBuilder(nil, nil, nil).Build(observationComponents())
	require.NoError(t, err)
	dump := td.Dump()
	assert.True(t, strings.Contains(dump, "component:diastolic 1..1"), dump)
}

type classifyAll profile.ExtensionType

func (c classifyAll) ClassifyExtension(el *profile.Element) profile.ExtensionType {
	if !el.HasTypeCode("Extension") {
		return profile.ExtensionNone
	}
	return profile.ExtensionType(c)
}
