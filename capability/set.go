package capability

import (
	"fmt"
	"slices"

	"github.com/anybox/capdispatch/version"
)

// DuplicateError reports a second declaration of the same (name, version)
// pair within one worker's capability set.
type DuplicateError struct {
	Name    string
	Version string
}

func (e *DuplicateError) Error() string {
	if e.Version == "" {
		return fmt.Sprintf("capability %q declared twice", e.Name)
	}
	return fmt.Sprintf("capability %q version %s declared twice", e.Name, e.Version)
}

type setKey struct {
	name    string
	version string
}

// Set is one worker's collection of capabilities, keyed by (name, version).
// Markers live in their own bucket keyed by name alone. The same name may
// repeat across distinct versions but a (name, version) pair is unique.
// Versions key by their canonical form, so "9" and "9.0" collide.
type Set struct {
	versioned map[setKey]*Capability
	markers   map[string]*Capability
}

// NewSet returns an empty capability set.
func NewSet() *Set {
	return &Set{
		versioned: make(map[setKey]*Capability),
		markers:   make(map[string]*Capability),
	}
}

// Add inserts a capability, failing with DuplicateError when its
// (name, version) key is already taken.
func (s *Set) Add(c *Capability) error {
	if c.IsMarker() {
		if _, ok := s.markers[c.Name]; ok {
			return &DuplicateError{Name: c.Name}
		}
		s.markers[c.Name] = c
		return nil
	}
	key := setKey{name: c.Name, version: c.Version.Canonical()}
	if _, ok := s.versioned[key]; ok {
		return &DuplicateError{Name: c.Name, Version: key.version}
	}
	s.versioned[key] = c
	return nil
}

// Has reports whether any capability of the given name is declared,
// versioned or marker.
func (s *Set) Has(name string) bool {
	if _, ok := s.markers[name]; ok {
		return true
	}
	for key := range s.versioned {
		if key.name == name {
			return true
		}
	}
	return false
}

// Get looks up the capability with the given (name, version) key, honoring
// structural version equality.
func (s *Set) Get(name string, v version.Version) (*Capability, bool) {
	c, ok := s.versioned[setKey{name: name, version: v.Canonical()}]
	return c, ok
}

// Marker looks up the marker capability of the given name.
func (s *Set) Marker(name string) (*Capability, bool) {
	c, ok := s.markers[name]
	return c, ok
}

// Versions returns the declared versions of a capability in ascending
// order. Markers do not contribute.
func (s *Set) Versions(name string) []version.Version {
	var versions []version.Version
	for key, c := range s.versioned {
		if key.name == name {
			versions = append(versions, *c.Version)
		}
	}
	slices.SortFunc(versions, version.Version.Compare)
	return versions
}

// Matching returns the capabilities of the filter's name whose versions pass
// its constraints, ascending by version, markers last.
func (s *Set) Matching(f version.Filter) []*Capability {
	var matched []*Capability
	for _, v := range s.Versions(f.Cap) {
		if c, ok := s.Get(f.Cap, v); ok && f.Match(c.Version) {
			matched = append(matched, c)
		}
	}
	if c, ok := s.markers[f.Cap]; ok && f.Match(nil) {
		matched = append(matched, c)
	}
	return matched
}

// MeetsAll reports whether every filter finds at least one matching
// capability in the set.
func (s *Set) MeetsAll(filters []version.Filter) bool {
	for _, f := range filters {
		if len(s.Matching(f)) == 0 {
			return false
		}
	}
	return true
}
