package diag

import (
	"fmt"
	"io"
	"sort"
	"sync"
)

// Accumulator keeps diagnostic events grouped by source profile.
// It is safe for concurrent use by workers processing different profiles.
type Accumulator struct {
	mx     sync.Mutex
	events map[string][]Event
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{events: make(map[string][]Event)}
}

// Add records an event.
func (acc *Accumulator) Add(event Event) {
	acc.mx.Lock()
	defer acc.mx.Unlock()
	acc.events[event.Profile] = append(acc.events[event.Profile], event)
}

// ForProfile returns a Sink recording events for a given profile.
func (acc *Accumulator) ForProfile(profile string) Sink {
	return profileSink{acc: acc, profile: profile}
}

type profileSink struct {
	acc     *Accumulator
	profile string
}

func (ps profileSink) Emit(kind EventKind, message string) {
	if kind.Fatal() {
		tracer().P("profile", ps.profile).Errorf("%s: %s", kind, message)
	} else {
		tracer().P("profile", ps.profile).Infof("%s: %s", kind, message)
	}
	ps.acc.Add(Event{Kind: kind, Profile: ps.profile, Message: message})
}

// Events returns a copy of the events recorded for a profile.
func (acc *Accumulator) Events(profile string) []Event {
	acc.mx.Lock()
	defer acc.mx.Unlock()
	return append([]Event(nil), acc.events[profile]...)
}

// Profiles returns the names of all profiles with events, sorted.
func (acc *Accumulator) Profiles() []string {
	acc.mx.Lock()
	defer acc.mx.Unlock()
	names := make([]string, 0, len(acc.events))
	for name := range acc.events {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FoundErrors is true if any error event has been recorded.
func (acc *Accumulator) FoundErrors() bool {
	return acc.FoundAnyOf(SeverityError)
}

// FoundWarnings is true if any warning event has been recorded.
func (acc *Accumulator) FoundWarnings() bool {
	return acc.FoundAnyOf(SeverityWarning)
}

// FoundAnyOf is true if any event of severity s has been recorded.
func (acc *Accumulator) FoundAnyOf(s Severity) bool {
	acc.mx.Lock()
	defer acc.mx.Unlock()
	for _, events := range acc.events {
		for _, e := range events {
			if e.Kind.Severity() == s {
				return true
			}
		}
	}
	return false
}

// Summary writes all events, grouped per profile and sorted by profile name.
func (acc *Accumulator) Summary(w io.Writer) error {
	for _, profile := range acc.Profiles() {
		events := acc.Events(profile)
		if _, err := fmt.Fprintf(w, "%s (%d event(s))\n", profile, len(events)); err != nil {
			return err
		}
		for _, e := range events {
			if _, err := fmt.Fprintf(w, "  %s\n", e); err != nil {
				return err
			}
		}
	}
	return nil
}
