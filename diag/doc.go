/*
Package diag collects diagnostic events raised while building and reconciling
profile trees.

Components never log anomalies by themselves. Instead they receive a Sink and
emit events of a well-known EventKind. Non-fatal kinds describe data-quality
issues of a profile; processing continues. Fatal kinds are recorded by the
orchestration layer when a profile has to be abandoned.

An Accumulator hands out one Sink per profile and keeps all events grouped by
profile, for a final summary.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package diag

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'fhirtree.diag'.
func tracer() tracing.Trace {
	return tracing.Select("fhirtree.diag")
}
