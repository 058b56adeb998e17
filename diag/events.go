package diag

import (
	"fmt"
)

// Severity of a diagnostic event.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}
	return "unknown"
}

// EventKind identifies a type of diagnostic event.
type EventKind int

const (
	// non-fatal
	MissingReferencedNode EventKind = iota
	LinkReferencesItself
	FixedValueWithLinkedNode
	MisnamedSnapshotChoiceNode
	ConstraintWithoutCondition
	DuplicateConstraintKeys
	DuplicateLinkTarget
	// fatal for a profile
	StructuralError
	NoMatchingNode
	AmbiguousSliceMatch
	NoDiscriminatorMatch
	AmbiguousDiscriminatorMatch
	ProfileFailed
)

var kindNames = map[EventKind]string{
	MissingReferencedNode:       "MissingReferencedNode",
	LinkReferencesItself:        "LinkReferencesItself",
	FixedValueWithLinkedNode:    "FixedValueWithLinkedNode",
	MisnamedSnapshotChoiceNode:  "MisnamedSnapshotChoiceNode",
	ConstraintWithoutCondition:  "ConstraintWithoutCondition",
	DuplicateConstraintKeys:     "DuplicateConstraintKeys",
	DuplicateLinkTarget:         "DuplicateLinkTarget",
	StructuralError:             "StructuralError",
	NoMatchingNode:              "NoMatchingNode",
	AmbiguousSliceMatch:         "AmbiguousSliceMatch",
	NoDiscriminatorMatch:        "NoDiscriminatorMatch",
	AmbiguousDiscriminatorMatch: "AmbiguousDiscriminatorMatch",
	ProfileFailed:               "ProfileFailed",
}

func (k EventKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Fatal is true for kinds which abort processing of a profile.
func (k EventKind) Fatal() bool {
	return k >= StructuralError
}

// Severity maps an event kind to its severity.
func (k EventKind) Severity() Severity {
	switch {
	case k.Fatal():
		return SeverityError
	case k == LinkReferencesItself:
		return SeverityInfo
	}
	return SeverityWarning
}

// Event is a single diagnostic message.
type Event struct {
	Kind    EventKind
	Profile string // source profile the event was raised for
	Message string
}

func (e Event) String() string {
	return fmt.Sprintf("[%s] %s: %s", e.Kind.Severity(), e.Kind, e.Message)
}

// Sink receives diagnostic events.
type Sink interface {
	Emit(kind EventKind, message string)
}

// Discard is a Sink dropping all events.
var Discard Sink = discard{}

type discard struct{}

func (discard) Emit(EventKind, string) {}

// Collector is a Sink keeping events in memory, in order of emission.
// It is not safe for concurrent use; use an Accumulator for that.
type Collector struct {
	Profile string
	Events  []Event
}

// Emit is part of interface Sink.
func (c *Collector) Emit(kind EventKind, message string) {
	tracer().P("profile", c.Profile).Infof("%s: %s", kind, message)
	c.Events = append(c.Events, Event{Kind: kind, Profile: c.Profile, Message: message})
}

// Count returns the number of events of a given kind.
func (c *Collector) Count(kind EventKind) int {
	n := 0
	for _, e := range c.Events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}
