/*
Package structdef builds trees of element definitions for a profile.

Overview

A profile arrives as two flat, pre-order sorted lists of dot-path addressed
elements, the snapshot and the differential. A Builder turns each list into a
TreeData. Where a differential omits ancestors of an element, the builder
inserts placeholder nodes ("dummy" nodes) which carry nothing but a path and
keep the real descendants connected to the root.

Nodes

Nodes are addressed through Node handles. Every node has a path, a parent and
ordered children. Real nodes additionally carry the element metadata (Real()
returns it); placeholder nodes do not, and code has to check before touching
element-only attributes:

    if rn, ok := node.Real(); ok {
        card := rn.Cardinality()
        ...
    }

Differential nodes get a "backup" node assigned during reconciliation
(package reconcile): the snapshot node they correspond to.

Clean-up

Tidy runs the structural clean-up passes in their required order:
extension-slicing scaffold removal, stripping of childless placeholders,
constraint deny-list filtering and stripping of inlined complex-extension
children. StripRemovedElements is a separate, optional pass.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package structdef

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'fhirtree.structdef'.
func tracer() tracing.Trace {
	return tracing.Select("fhirtree.structdef")
}
