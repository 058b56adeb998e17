/*
Package reconcile matches the nodes of a differential tree to their
counterparts in the snapshot tree of the same profile.

A differential lists only what a profile changes; the snapshot lists the
complete, flattened element structure. Rendering a differential needs, for
every differential node, the snapshot node it refines. The Reconciler finds
it and stores it as the "backup" node of the differential node
(see structdef.Node.SetBackup).

Matching

Matching is by path, confined to the sub-tree of the nearest sliced ancestor's
backup node, so that nodes below one slice never match nodes below a sibling
slice. Extension parameters count as slices here, as they share their path with
their siblings. If several snapshot nodes remain, slicing decides: slice names first,
then the fixed values at the slicing's discriminator paths. Differential paths
naming a concrete choice type (e.g. "Patient.deceasedBoolean") are repaired to
the choice path of the snapshot ("Patient.deceased[x]").

Failures to find a unique backup node are fatal for the profile and are
returned as *structdef.StructuralError. Repairs are reported to a diag.Sink.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package reconcile

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'fhirtree.reconcile'.
func tracer() tracing.Trace {
	return tracing.Select("fhirtree.reconcile")
}
