package dispatch

import (
	"context"
	"fmt"
	"slices"

	"github.com/anybox/capdispatch/capability"
	"github.com/anybox/capdispatch/internal/ctxlog"
	"github.com/anybox/capdispatch/version"
)

// PropertyGetter reads build properties. The host runtime supplies the
// implementation bound to the executing job.
type PropertyGetter interface {
	Property(name string) (any, bool)
}

// PropertyStore is the read/write property access a build step executes
// against.
type PropertyStore interface {
	PropertyGetter
	SetProperty(name string, value any)
}

// Properties is a plain map PropertyStore for hosts and tests.
type Properties map[string]any

func (p Properties) Property(name string) (any, bool) {
	v, ok := p[name]
	return v, ok
}

func (p Properties) SetProperty(name string, value any) {
	p[name] = value
}

// Step is a build step injected into a factory, executed later by the host
// runtime on the job's assigned worker.
type Step interface {
	Name() string
	Execute(ctx context.Context, worker *capability.Worker, props PropertyStore) error
}

// Factory is the host runtime's build-step container. The dispatcher only
// appends steps to it and otherwise treats it as opaque.
type Factory interface {
	AddStep(step Step)
}

// StepList is a minimal Factory collecting steps in order.
type StepList []Step

func (l *StepList) AddStep(step Step) {
	*l = append(*l, step)
}

// SetCapabilityProperties extracts one capability's version and params from
// the executing worker's declaration into build properties: VersionProp
// holds the version string and "cap_<abbrev>_<param>" each param value.
//
// When the builder was dispatched over this capability, its version property
// pins the instance to use. Otherwise the worker's declared versions are
// narrowed by the forwarded build requirements and the highest remaining
// version wins.
type SetCapabilityProperties struct {
	CapabilityName string
	VersionProp    string
	Abbrev         string
}

func (s *SetCapabilityProperties) Name() string {
	return "props_" + s.CapabilityName
}

func (s *SetCapabilityProperties) Execute(ctx context.Context, worker *capability.Worker, props PropertyStore) error {
	logger := ctxlog.FromContext(ctx)

	candidates := worker.Caps.Matching(version.Presence(s.CapabilityName))
	if len(candidates) == 0 {
		// capability not declared on this worker, nothing to expose
		return nil
	}

	candidates, err := s.narrowByRequires(candidates, props)
	if err != nil {
		return err
	}

	chosen, err := s.choose(candidates, worker, props)
	if err != nil {
		return err
	}

	if s.VersionProp != "" && chosen.Version != nil {
		if _, ok := props.Property(s.VersionProp); !ok {
			props.SetProperty(s.VersionProp, chosen.Version.String())
		}
	}
	for _, param := range sortedKeys(chosen.Params) {
		prop := "cap_" + s.Abbrev + "_" + param
		props.SetProperty(prop, chosen.Params[param])
		logger.Debug("set capability property", "property", prop, "worker", worker.Name)
	}
	return nil
}

// narrowByRequires drops declared instances excluded by the build
// requirements forwarded under PropBuildRequires.
func (s *SetCapabilityProperties) narrowByRequires(candidates []*capability.Capability, props PropertyGetter) ([]*capability.Capability, error) {
	raw, ok := props.Property(PropBuildRequires)
	if !ok {
		return candidates, nil
	}
	texts, ok := raw.([]string)
	if !ok {
		return nil, fmt.Errorf("property %q: expected []string, got %T", PropBuildRequires, raw)
	}
	for _, text := range texts {
		f, err := version.ParseFilter(text)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", PropBuildRequires, err)
		}
		if f.Cap != s.CapabilityName {
			continue
		}
		var kept []*capability.Capability
		for _, c := range candidates {
			if c.Satisfies(f) {
				kept = append(kept, c)
			}
		}
		candidates = kept
	}
	return candidates, nil
}

// choose pins the instance named by the builder's version property when set,
// otherwise picks the highest remaining version (the marker when nothing
// versioned remains).
func (s *SetCapabilityProperties) choose(candidates []*capability.Capability, worker *capability.Worker, props PropertyGetter) (*capability.Capability, error) {
	if s.VersionProp != "" {
		if raw, ok := props.Property(s.VersionProp); ok {
			want, err := version.Parse(fmt.Sprint(raw))
			if err != nil {
				return nil, fmt.Errorf("property %q: %w", s.VersionProp, err)
			}
			for _, c := range candidates {
				if c.Version != nil && c.Version.Equal(want) {
					return c, nil
				}
			}
			return nil, fmt.Errorf("worker %q does not declare %s %s", worker.Name, s.CapabilityName, want)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("worker %q: no declared %s version matches the build requirements", worker.Name, s.CapabilityName)
	}
	// Matching returns versions ascending with the marker last; take the
	// highest versioned instance, or the marker when that is all there is.
	for i := len(candidates) - 1; i >= 0; i-- {
		if candidates[i].Version != nil {
			return candidates[i], nil
		}
	}
	return candidates[0], nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
