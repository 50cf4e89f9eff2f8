// Package capability models the facts a worker declares about itself: named,
// optionally versioned, optionally parameterized resources such as
// "postgresql 9.4 port=5434" or the bare marker "ssh_key".
package capability

import (
	"fmt"

	"github.com/anybox/capdispatch/version"
)

// Capability is one declared fact. A nil Version makes it a marker, a pure
// presence flag. Params are opaque strings consumed later through
// "cap(<param>)" lookups.
type Capability struct {
	Name    string
	Version *version.Version
	Params  map[string]string
}

// IsMarker reports whether the capability carries no version.
func (c *Capability) IsMarker() bool {
	return c.Version == nil
}

// Satisfies reports whether the capability matches the filter: names equal
// and the version (nil for markers) accepted by the filter's constraints.
func (c *Capability) Satisfies(f version.Filter) bool {
	return c.Name == f.Cap && f.Match(c.Version)
}

func (c *Capability) String() string {
	if c.Version == nil {
		return c.Name
	}
	return fmt.Sprintf("%s %s", c.Name, c.Version)
}
