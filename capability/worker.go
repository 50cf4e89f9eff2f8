package capability

import (
	"fmt"
	"slices"

	"github.com/anybox/capdispatch/version"
)

// Decl is the raw per-worker capability declaration supplied by the host
// configuration layer: capability name -> version string -> params. The
// empty version string declares a marker.
type Decl map[string]map[string]map[string]string

// Worker is one build machine described by the capabilities it offers.
//
// OnlyIfRequires lists capability names this worker is reserved for: it is
// eligible for a builder only when every listed name appears among the
// builder's requirements. This keeps ordinary builds off machines dedicated
// to, say, private-code access.
type Worker struct {
	Name           string
	Caps           *Set
	OnlyIfRequires []string
}

// NewWorker validates a declaration into a Worker. Version strings must be
// dotted numerics; duplicate (name, version) pairs fail with DuplicateError.
func NewWorker(name string, decl Decl) (*Worker, error) {
	set := NewSet()
	for capName, byVersion := range decl {
		if len(byVersion) == 0 {
			if err := set.Add(&Capability{Name: capName}); err != nil {
				return nil, fmt.Errorf("worker %q: %w", name, err)
			}
			continue
		}
		for versionText, params := range byVersion {
			c := &Capability{Name: capName, Params: params}
			if versionText != "" {
				v, err := version.Parse(versionText)
				if err != nil {
					return nil, fmt.Errorf("worker %q, capability %q: %w", name, capName, err)
				}
				c.Version = &v
			}
			if err := set.Add(c); err != nil {
				return nil, fmt.Errorf("worker %q: %w", name, err)
			}
		}
	}
	return &Worker{Name: name, Caps: set}, nil
}

// ReservedFor reports whether the worker's only-if-requires names are all
// covered by the given required capability names.
func (w *Worker) ReservedFor(requiredNames []string) bool {
	for _, name := range w.OnlyIfRequires {
		if !slices.Contains(requiredNames, name) {
			return false
		}
	}
	return true
}
