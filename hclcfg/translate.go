package hclcfg

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/anybox/capdispatch/capability"
	"github.com/anybox/capdispatch/dispatch"
	"github.com/anybox/capdispatch/version"
)

// translateWorker builds a validated Worker from its decoded block.
func translateWorker(wb *workerBlock) (*capability.Worker, error) {
	set := capability.NewSet()
	for _, cb := range wb.Capabilities {
		if len(cb.Versions) == 0 {
			if err := set.Add(&capability.Capability{Name: cb.Name}); err != nil {
				return nil, fmt.Errorf("worker %q: %w", wb.Name, err)
			}
			continue
		}
		for _, vb := range cb.Versions {
			v, err := version.Parse(vb.Version)
			if err != nil {
				return nil, fmt.Errorf("worker %q, capability %q: %w", wb.Name, cb.Name, err)
			}
			params, err := stringMap(vb.Params)
			if err != nil {
				return nil, fmt.Errorf("worker %q, capability %q %s: %w", wb.Name, cb.Name, vb.Version, err)
			}
			c := &capability.Capability{Name: cb.Name, Version: &v, Params: params}
			if err := set.Add(c); err != nil {
				return nil, fmt.Errorf("worker %q: %w", wb.Name, err)
			}
		}
	}
	return &capability.Worker{
		Name:           wb.Name,
		Caps:           set,
		OnlyIfRequires: wb.OnlyIfRequires,
	}, nil
}

// translateInfo builds one capability-info table entry.
func translateInfo(ib *infoBlock) (dispatch.Info, error) {
	environ, err := stringMap(ib.Environ)
	if err != nil {
		return dispatch.Info{}, fmt.Errorf("capability_info %q environ: %w", ib.Name, err)
	}
	return dispatch.Info{
		VersionProp: ib.VersionProp,
		Abbrev:      ib.Abbrev,
		Environ:     environ,
	}, nil
}

// stringMap evaluates an object/map expression into string keys and values.
// Non-string primitives (an unquoted port number, say) are converted.
func stringMap(expr hcl.Expression) (map[string]string, error) {
	if expr == nil {
		return nil, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("evaluating expression: %w", diags)
	}
	if val.IsNull() {
		return nil, nil
	}
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil, fmt.Errorf("expected a map of strings, got %s", val.Type().FriendlyName())
	}
	m := make(map[string]string)
	for key, item := range val.AsValueMap() {
		converted, err := convert.Convert(item, cty.String)
		if err != nil {
			return nil, fmt.Errorf("value of %q: %w", key, err)
		}
		if converted.IsNull() {
			continue
		}
		m[key] = converted.AsString()
	}
	return m, nil
}
