package dispatch

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/anybox/capdispatch/internal/ctxlog"
)

// rePropCapOpt rewrites "cap(<param>)" lookups into the build property the
// property step will have set for that capability's param.
var rePropCapOpt = regexp.MustCompile(`cap\((\w*)\)`)

// Environ maps environment variable names to the templates that produce
// their values at job-execution time. All variables hold a single-element
// list except PATH, which carries a trailing "${PATH}" literal so that the
// capability's path is prepended rather than replacing the worker's.
type Environ map[string][]Template

// Template is a deferred-interpolation expression: a sequence of literal
// text and "%(prop:<name>:-<default>)s" lookups resolved against build
// properties when the job runs. A lookup without default fails when the
// property is absent; with a default, the default is emitted instead.
type Template struct {
	raw      string
	segments []segment
}

type segment struct {
	// literal text when prop is empty, otherwise a property lookup
	literal    string
	prop       string
	def        string
	hasDefault bool
}

// Literal returns a template that resolves to text unchanged.
func Literal(text string) Template {
	return Template{raw: text, segments: []segment{{literal: text}}}
}

// ParseTemplate compiles a template string. The recognized form is
// "%(prop:<name>)s" optionally with a ":-<default>" suffix; anything else is
// literal text.
func ParseTemplate(text string) (Template, error) {
	t := Template{raw: text}
	rest := text
	for {
		open := strings.Index(rest, "%(")
		if open < 0 {
			break
		}
		if open > 0 {
			t.segments = append(t.segments, segment{literal: rest[:open]})
		}
		rest = rest[open+2:]
		end := strings.Index(rest, ")s")
		if end < 0 {
			return Template{}, fmt.Errorf("template %q: unterminated %%(...)s interpolation", text)
		}
		inner := rest[:end]
		rest = rest[end+2:]

		name, ok := strings.CutPrefix(inner, "prop:")
		if !ok {
			return Template{}, fmt.Errorf("template %q: unsupported interpolation %q", text, inner)
		}
		seg := segment{}
		if cut := strings.Index(name, ":-"); cut >= 0 {
			seg.def = name[cut+2:]
			seg.hasDefault = true
			name = name[:cut]
		}
		if name == "" {
			return Template{}, fmt.Errorf("template %q: empty property name", text)
		}
		seg.prop = name
		t.segments = append(t.segments, seg)
	}
	if rest != "" {
		t.segments = append(t.segments, segment{literal: rest})
	}
	return t, nil
}

// Resolve evaluates the template against the given properties.
func (t Template) Resolve(props PropertyGetter) (string, error) {
	var b strings.Builder
	for _, seg := range t.segments {
		if seg.prop == "" {
			b.WriteString(seg.literal)
			continue
		}
		value, ok := props.Property(seg.prop)
		switch {
		case ok:
			fmt.Fprint(&b, value)
		case seg.hasDefault:
			b.WriteString(seg.def)
		default:
			return "", fmt.Errorf("template %q: property %q is not set and has no default", t.raw, seg.prop)
		}
	}
	return b.String(), nil
}

// String returns the template source text.
func (t Template) String() string {
	return t.raw
}

// SetPropertiesMakeEnviron appends one property step per requested
// capability to the factory and returns the environment-variable templates
// derived from the capability-info table.
//
// The injected steps run on the job's assigned worker and expose
// "<version_prop>" and "cap_<abbrev>_<param>" build properties; the returned
// templates resolve their "cap(<param>)" lookups against those properties.
// Requesting a capability name absent from the info table is a
// configuration error.
func (d *Dispatcher) SetPropertiesMakeEnviron(ctx context.Context, factory Factory, capNames []string) (Environ, error) {
	logger := ctxlog.FromContext(ctx)
	env := make(Environ)
	for _, name := range capNames {
		info, ok := d.infos[name]
		if !ok {
			return nil, &UnknownCapabilityError{Name: name}
		}
		abbrev := info.Abbrev
		if abbrev == "" {
			abbrev = name
		}
		factory.AddStep(&SetCapabilityProperties{
			CapabilityName: name,
			VersionProp:    info.VersionProp,
			Abbrev:         abbrev,
		})
		for envKey, text := range info.Environ {
			rewritten := rePropCapOpt.ReplaceAllString(text, "prop:cap_"+abbrev+"_$1")
			t, err := ParseTemplate(rewritten)
			if err != nil {
				return nil, fmt.Errorf("capability %q, environment variable %q: %w", name, envKey, err)
			}
			if envKey == "PATH" {
				env[envKey] = []Template{t, Literal("${PATH}")}
			} else {
				env[envKey] = []Template{t}
			}
		}
		logger.Debug("added capability property step", "capability", name)
	}
	return env, nil
}
