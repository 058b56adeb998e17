package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"sync/atomic"

	"github.com/npillmayer/fhirtree/diag"
	"github.com/npillmayer/fhirtree/profile"
	"github.com/npillmayer/fhirtree/reconcile"
	"github.com/npillmayer/fhirtree/structdef"
	"golang.org/x/sync/errgroup"
)

// Result holds the finished trees of one profile. Differential is nil for
// profiles without a differential. Backups of differential nodes point into
// Backup, a snapshot tree of its own which is not tidied, so that every
// backup node stays reachable.
type Result struct {
	Profile      string
	Snapshot     *structdef.TreeData
	Differential *structdef.TreeData
	Backup       *structdef.TreeData
}

// Processor runs profiles through the pipeline. It is safe to process
// different profiles concurrently.
type Processor struct {
	cfg      *profile.Config
	registry *profile.Registry
	acc      *diag.Accumulator
}

// NewProcessor creates a processor. registry may be nil, in which case no
// element is classified as an extension. acc may be nil.
func NewProcessor(cfg *profile.Config, registry *profile.Registry, acc *diag.Accumulator) *Processor {
	if cfg == nil {
		cfg = profile.DefaultConfig()
	}
	if acc == nil {
		acc = diag.NewAccumulator()
	}
	return &Processor{cfg: cfg, registry: registry, acc: acc}
}

// Events returns the accumulator collecting the diagnostics of all profiles.
func (p *Processor) Events() *diag.Accumulator {
	return p.acc
}

func (p *Processor) classifier() profile.ExtensionClassifier {
	if p.registry == nil {
		return profile.NoExtensions
	}
	return p.registry
}

// Process builds, reconciles and cleans up the trees of one profile.
// A fatal error is recorded for the profile and returned.
func (p *Processor) Process(sd *profile.StructureDefinition) (*Result, error) {
	sink := p.acc.ForProfile(sd.Name)
	result, err := p.process(sd, sink)
	if err != nil {
		sink.Emit(structdef.EventKind(err), err.Error())
		tracer().Errorf("profile %s failed: %v", sd.Name, err)
		return nil, err
	}
	return result, nil
}

func (p *Processor) process(sd *profile.StructureDefinition, sink diag.Sink) (*Result, error) {
	builder := structdef.NewBuilder(p.cfg, p.classifier(), sink)
	snap, err := builder.BuildSnapshot(sd.Snapshot)
	if err != nil {
		return nil, err
	}
	snap.ResolveLinks(sink)
	snap.CacheSlicingDiscriminators()
	result := &Result{Profile: sd.Name, Snapshot: snap}
	//
	if len(sd.Differential) > 0 {
		diff, err := builder.BuildDifferential(sd.Differential)
		if err != nil {
			return nil, err
		}
		backup, err := p.backupTree(sd)
		if err != nil {
			return nil, err
		}
		if err := reconcile.NewReconciler(p.cfg, sink).Reconcile(diff, backup); err != nil {
			return nil, err
		}
		diff.ResolveLinks(sink)
		diff.CacheSlicingDiscriminators()
		result.Differential, result.Backup = diff, backup
	}
	//
	for _, td := range []*structdef.TreeData{result.Snapshot, result.Differential} {
		if td == nil {
			continue
		}
		if p.cfg.HideRemovedElements {
			td.StripRemovedElements()
		}
		td.Tidy()
	}
	tracer().Infof("profile %s: snapshot has %d nodes", sd.Name, snap.Size())
	return result, nil
}

// backupTree builds a fresh snapshot tree for the differential to point into.
// Its diagnostics have been reported for the snapshot tree already.
func (p *Processor) backupTree(sd *profile.StructureDefinition) (*structdef.TreeData, error) {
	backup, err := structdef.NewBuilder(p.cfg, p.classifier(), diag.Discard).BuildSnapshot(sd.Snapshot)
	if err != nil {
		return nil, err
	}
	backup.ResolveLinks(diag.Discard)
	backup.CacheSlicingDiscriminators()
	return backup, nil
}

// ProcessAll processes profiles in parallel, with at most the configured
// number of workers. Results are in the order of sds; profiles which failed
// have a nil result. The error reports cancellation of ctx, not failures of
// single profiles. These are found in the accumulated events.
func (p *Processor) ProcessAll(ctx context.Context, sds []*profile.StructureDefinition) ([]*Result, error) {
	results := make([]*Result, len(sds))
	var failed int32
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for i, sd := range sds {
		i, sd := i, sd
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := p.Process(sd)
			if err != nil {
				atomic.AddInt32(&failed, 1)
				return nil // continue with the next profile
			}
			results[i] = r
			return nil
		})
	}
	err := g.Wait()
	tracer().Infof("processed %d profiles, %d failed", len(sds), atomic.LoadInt32(&failed))
	return results, err
}

// Load reads all profiles matching a glob pattern from fsys and registers
// them, so that extension elements can be classified. A file which cannot
// be read stops loading.
func (p *Processor) Load(fsys fs.FS, pattern string) ([]*profile.StructureDefinition, error) {
	names, err := fs.Glob(fsys, pattern)
	if err != nil {
		return nil, err
	}
	sds := make([]*profile.StructureDefinition, 0, len(names))
	for _, name := range names {
		f, err := fsys.Open(name)
		if err != nil {
			return nil, err
		}
		sd, err := profile.ReadStructureDefinition(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if p.registry != nil {
			if err := p.registry.Register(sd); err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
		}
		sds = append(sds, sd)
	}
	tracer().Debugf("loaded %d profiles matching %s", len(sds), pattern)
	return sds, nil
}
