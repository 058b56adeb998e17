package pipeline

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/npillmayer/fhirtree/diag"
	"github.com/npillmayer/fhirtree/profile"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixtures(t *testing.T, cfg *profile.Config) (*Processor, map[string]*profile.StructureDefinition) {
	t.Helper()
	reg, err := profile.NewRegistry(cfg, 0)
	require.NoError(t, err)
	p := NewProcessor(cfg, reg, nil)
	sds, err := p.Load(os.DirFS("testdata"), "*.yaml")
	require.NoError(t, err)
	byName := make(map[string]*profile.StructureDefinition, len(sds))
	for _, sd := range sds {
		byName[sd.Name] = sd
	}
	return p, byName
}

func TestLoadRegistersProfiles(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fhirtree.pipeline")
	defer teardown()
	//
	p, sds := loadFixtures(t, nil)
	assert.Len(t, sds, 4)
	assert.Equal(t, 4, p.registry.Len())
	_, ok := p.registry.Lookup("http://example.org/nationality")
	assert.True(t, ok)
	assert.True(t, sds["Nationality"].IsExtension())
}

func TestProcessProfile(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fhirtree.pipeline")
	defer teardown()
	//
	p, sds := loadFixtures(t, nil)
	r, err := p.Process(sds["MyPatient"])
	require.NoError(t, err)
	assert.Equal(t, []string{"Patient", "Patient.extension", "Patient.name", "Patient.name.family",
		"Patient.contact", "Patient.contact.name", "Patient.photo", "Patient.active"}, r.Snapshot.Paths())
	t.Logf("snapshot =\n%s", r.Snapshot.Dump())
	//
	ext := r.Snapshot.Find(r.Snapshot.Root(), "Patient.extension")[0]
	assert.Equal(t, profile.ExtensionComplex, ext.ExtensionType())
	assert.Equal(t, 0, ext.ChildCount(), "inlined children of complex extension must be stripped")
	contactName, _ := r.Snapshot.Find(r.Snapshot.Root(), "Patient.contact.name")[0].Real()
	linked, ok := contactName.LinkedNode()
	require.True(t, ok)
	assert.Equal(t, "Patient.name", linked.Path())
	active, _ := r.Snapshot.Find(r.Snapshot.Root(), "Patient.active")[0].Real()
	assert.Empty(t, active.Constraints())
	//
	require.NotNil(t, r.Differential)
	t.Logf("differential =\n%s", r.Differential.Dump())
	assert.Equal(t, []string{"Patient", "Patient.extension", "Patient.name", "Patient.name.family",
		"Patient.photo"}, r.Differential.Paths())
	require.NotNil(t, r.Backup)
	it := r.Differential.Iterate()
	for it.Next() {
		n := it.Node()
		b, ok := n.Backup()
		require.True(t, ok, "no backup for %s", n)
		assert.Equal(t, n.Path(), b.Path())
		assert.Same(t, r.Backup, b.Tree())
		assert.Contains(t, r.Backup.Find(r.Backup.Root(), b.Path()), b, "backup of %s must be reachable", n)
	}
	extBackup, _ := r.Differential.Find(r.Differential.Root(), "Patient.extension")[0].Backup()
	slice, _ := extBackup.SliceName()
	assert.Equal(t, "nationality", slice)
	assert.Equal(t, 1, extBackup.ChildCount(), "backup tree must not be tidied")
	events := p.Events().Events("MyPatient")
	assert.Empty(t, events, spew.Sdump(events))
}

func TestProcessHidesRemovedElements(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fhirtree.pipeline")
	defer teardown()
	//
	cfg := profile.DefaultConfig()
	cfg.HideRemovedElements = true
	p, sds := loadFixtures(t, cfg)
	r, err := p.Process(sds["MyPatient"])
	require.NoError(t, err)
	assert.Empty(t, r.Snapshot.Find(r.Snapshot.Root(), "Patient.photo"))
	assert.Equal(t, []string{"Patient", "Patient.extension", "Patient.name", "Patient.name.family"},
		r.Differential.Paths())
}

func TestProcessRecordsFailure(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fhirtree.pipeline")
	defer teardown()
	//
	p, sds := loadFixtures(t, nil)
	r, err := p.Process(sds["Broken"])
	assert.Error(t, err)
	assert.Nil(t, r)
	events := p.Events().Events("Broken")
	require.Len(t, events, 1, spew.Sdump(events))
	assert.Equal(t, diag.NoMatchingNode, events[0].Kind)
	assert.True(t, p.Events().FoundErrors())
}

func TestProcessAll(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fhirtree.pipeline")
	defer teardown()
	//
	p, _ := loadFixtures(t, nil)
	sds, err := p.Load(os.DirFS("testdata"), "*.yaml") // registered already
	require.Error(t, err)
	assert.ErrorIs(t, err, profile.ErrDuplicateProfile)
	assert.Nil(t, sds)
	//
	p, byName := loadFixtures(t, nil)
	all := []*profile.StructureDefinition{byName["BloodPressure"], byName["Broken"],
		byName["MyPatient"], byName["Nationality"]}
	results, err := p.ProcessAll(context.Background(), all)
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Nil(t, results[1], "broken profile must not produce a result")
	for _, i := range []int{0, 2, 3} {
		require.NotNil(t, results[i])
		assert.Equal(t, all[i].Name, results[i].Profile)
	}
	//
	bp := results[0].Differential
	component := bp.Find(bp.Root(), "Observation.component")[0]
	b, _ := component.Backup()
	slice, _ := b.SliceName()
	assert.Equal(t, "diastolic", slice)
	//
	acc := p.Events()
	assert.Equal(t, []string{"BloodPressure", "Broken"}, acc.Profiles())
	assert.True(t, acc.FoundErrors())
	assert.True(t, acc.FoundWarnings())
	var buf bytes.Buffer
	require.NoError(t, acc.Summary(&buf))
	assert.Contains(t, buf.String(), "MisnamedSnapshotChoiceNode")
	assert.Contains(t, buf.String(), "NoMatchingNode")
	broken := acc.Events("Broken")
	require.Len(t, broken, 1, spew.Sdump(broken))
	assert.Equal(t, diag.NoMatchingNode, broken[0].Kind)
	t.Logf("summary:\n%s", buf.String())
}

func TestProcessAllCancelled(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fhirtree.pipeline")
	defer teardown()
	//
	p, byName := loadFixtures(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := p.ProcessAll(ctx, []*profile.StructureDefinition{byName["MyPatient"]})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, results[0])
}
