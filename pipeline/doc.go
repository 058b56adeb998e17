/*
Package pipeline turns profiles into reconciled pairs of trees.

For every profile, processing is strictly sequential:

	snapshot tree:      build → resolve links → cache discriminators
	differential tree:  build → reconcile against backup tree → resolve links → cache discriminators
	both trees:         strip removed elements (if configured) → tidy

The backup tree is a second snapshot tree, built like the first one but never
tidied. Backup nodes of the differential point into it.

A fatal error abandons the profile it occurred in, is recorded as a
diagnostic event for that profile, and processing moves on to the next
profile. Profiles never share trees, so ProcessAll works on several of them in
parallel, bounded by the configured number of workers.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package pipeline

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'fhirtree.pipeline'.
func tracer() tracing.Trace {
	return tracing.Select("fhirtree.pipeline")
}
