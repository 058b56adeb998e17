/*
Package profile defines the records exchanged with the element source.

A profile (a StructureDefinition) comes with two parallel, pre-order sorted
lists of path-addressed element records: the snapshot and the differential.
Parsing the interchange format into these records is not the business of this
module; an adapter layer fills Element values and hands them over. For tests
and tooling, StructureDefinitions may be read from a YAML rendition of the
records (see ReadStructureDefinition).

Configuration

All lookup tables the tree builder and reconciler depend on (recognized choice
suffixes, the constraint deny-list, extension path names, ...) live in a
Config value which is constructed once and passed around explicitly. There is
no process-wide state, so profiles of different format revisions may be
processed concurrently with different configurations.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package profile

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'fhirtree.profile'.
func tracer() tracing.Trace {
	return tracing.Select("fhirtree.profile")
}
