package dispatch

import (
	"context"
	"maps"

	"github.com/anybox/capdispatch/capability"
	"github.com/anybox/capdispatch/internal/ctxlog"
	"github.com/anybox/capdispatch/version"
)

// PropBuildRequires is the build property under which MakeBuilders forwards
// the textual build requirements, for the property step to re-narrow
// multi-version capabilities at run time.
const PropBuildRequires = "build_requires"

// Dispatcher derives builder variants and eligibility from a worker roster
// and a capability-info table. The roster is treated as an immutable
// snapshot: the Dispatcher never mutates it and holds no other state.
type Dispatcher struct {
	workers []*capability.Worker
	infos   map[string]Info
}

// New builds a Dispatcher over the given roster, preserving worker order.
func New(workers []*capability.Worker, infos map[string]Info) *Dispatcher {
	return &Dispatcher{workers: workers, infos: infos}
}

// Builder is one surviving variant: a generated name, the factory passed
// through for the host runtime, the eligible workers in roster order, and
// the build properties carrying the chosen version per dimension.
type Builder struct {
	Name          string
	Factory       Factory
	Workers       []string
	Props         map[string]string
	BuildRequires []string
}

// variant is one branch of the in-progress cross-product.
type variant struct {
	name    string
	workers []*capability.Worker
	props   map[string]string
}

// slot is one value of a build-for dimension: a concrete version, or nil for
// the synthetic marker slot, with the workers that own it.
type slot struct {
	version *version.Version
	workers []*capability.Worker
}

// MakeBuilders expands buildFor into the cross-product of builder variants
// and gates eligibility by buildRequires.
//
// Each buildFor filter contributes one dimension: the versions it selects
// across the roster, ascending, with a marker slot when workers declare the
// capability without a version. Variant names append "-{abbrev}{version}"
// per dimension in filter order ("-{abbrev}" for marker slots). A worker is
// eligible for a variant when it owns the exact (name, version) pair of
// every dimension and matches every buildRequires filter. Combinations with
// no eligible worker are dropped; the whole result is deterministic for
// identical inputs.
func (d *Dispatcher) MakeBuilders(ctx context.Context, base string, factory Factory, buildFor, buildRequires []version.Filter) ([]Builder, error) {
	logger := ctxlog.FromContext(ctx)

	for _, f := range buildFor {
		if _, ok := d.infos[f.Cap]; !ok {
			return nil, &UnknownCapabilityError{Name: f.Cap}
		}
	}
	for _, f := range buildRequires {
		if _, ok := d.infos[f.Cap]; !ok {
			return nil, &UnknownCapabilityError{Name: f.Cap}
		}
	}

	eligible := d.filterByRequires(buildRequires)
	if len(eligible) == 0 {
		logger.Debug("no worker meets the build requirements", "base", base)
		return nil, nil
	}

	variants := []variant{{
		name:    base,
		workers: eligible,
		props:   map[string]string{},
	}}
	for _, f := range buildFor {
		variants = d.refineByCapability(variants, f)
		if len(variants) == 0 {
			break
		}
	}

	requiresText := make([]string, len(buildRequires))
	for i, f := range buildRequires {
		requiresText[i] = f.String()
	}

	builders := make([]Builder, 0, len(variants))
	for _, va := range variants {
		names := make([]string, len(va.workers))
		for i, w := range va.workers {
			names[i] = w.Name
		}
		builders = append(builders, Builder{
			Name:          va.name,
			Factory:       factory,
			Workers:       names,
			Props:         va.props,
			BuildRequires: requiresText,
		})
	}
	logger.Debug("builder dispatch complete",
		"base", base, "dimensions", len(buildFor), "builders", len(builders))
	return builders, nil
}

// refineByCapability multiplies every variant by the slots of one build-for
// dimension. Splitting each branch by the versions its own workers declare
// prunes empty combinations eagerly instead of materializing the full
// product first.
func (d *Dispatcher) refineByCapability(variants []variant, f version.Filter) []variant {
	info := d.infos[f.Cap]
	abbrev := info.Abbrev
	if abbrev == "" {
		abbrev = f.Cap
	}

	var refined []variant
	for _, va := range variants {
		for _, sl := range splitByCapability(va.workers, f) {
			next := variant{
				workers: sl.workers,
				props:   maps.Clone(va.props),
			}
			if sl.version == nil {
				next.name = va.name + "-" + abbrev
			} else {
				next.name = va.name + "-" + abbrev + sl.version.String()
				if info.VersionProp != "" {
					next.props[info.VersionProp] = sl.version.String()
				}
			}
			refined = append(refined, next)
		}
	}
	return refined
}

// splitByCapability organizes workers into the ordered slots of one
// dimension: the marker slot first when the filter admits it, then the
// selected versions ascending. A worker appears under every version it
// declares for the capability.
func splitByCapability(workers []*capability.Worker, f version.Filter) []slot {
	var available []version.Version
	var markerOwners []*capability.Worker
	for _, w := range workers {
		available = append(available, w.Caps.Versions(f.Cap)...)
		if _, ok := w.Caps.Marker(f.Cap); ok && f.Match(nil) {
			markerOwners = append(markerOwners, w)
		}
	}

	var slots []slot
	if len(markerOwners) > 0 {
		slots = append(slots, slot{workers: markerOwners})
	}
	for _, v := range f.Select(available) {
		v := v
		var owners []*capability.Worker
		for _, w := range workers {
			if _, ok := w.Caps.Get(f.Cap, v); ok {
				owners = append(owners, w)
			}
		}
		slots = append(slots, slot{version: &v, workers: owners})
	}
	return slots
}

// filterByRequires returns the workers, in roster order, that match every
// requirement and whose only-if-requires reservation is covered by the
// required capability names.
func (d *Dispatcher) filterByRequires(requires []version.Filter) []*capability.Worker {
	names := make([]string, len(requires))
	for i, f := range requires {
		names[i] = f.Cap
	}
	var eligible []*capability.Worker
	for _, w := range d.workers {
		if w.Caps.MeetsAll(requires) && w.ReservedFor(names) {
			eligible = append(eligible, w)
		}
	}
	return eligible
}
