package dispatch

import "fmt"

// Info is the caller-supplied metadata for one capability name. It governs
// how the capability surfaces in generated builder names, build properties
// and the environment of subsequent steps.
type Info struct {
	// VersionProp is the build property holding the chosen version,
	// e.g. "pg_version".
	VersionProp string
	// Abbrev is the short token used in generated builder names,
	// e.g. "pg" in "bldr-pg9.4". Defaults to the capability name.
	Abbrev string
	// Environ maps environment variable names to template strings using
	// "%(cap(<param>):-<default>)s" lookups against the capability's params.
	Environ map[string]string
}

// UnknownCapabilityError reports a filter or capability reference naming a
// capability absent from the info table.
type UnknownCapabilityError struct {
	Name string
}

func (e *UnknownCapabilityError) Error() string {
	return fmt.Sprintf("capability %q is not registered in the capability-info table", e.Name)
}
