package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anybox/capdispatch/capability"
)

func TestParseTemplateLiteral(t *testing.T) {
	tpl, err := ParseTemplate("plain text")
	require.NoError(t, err)
	got, err := tpl.Resolve(Properties{})
	require.NoError(t, err)
	assert.Equal(t, "plain text", got)
}

func TestParseTemplateLookup(t *testing.T) {
	tpl, err := ParseTemplate("%(prop:cap_pg_bin)s/psql")
	require.NoError(t, err)

	got, err := tpl.Resolve(Properties{"cap_pg_bin": "/usr/lib/postgresql/9.4/bin"})
	require.NoError(t, err)
	assert.Equal(t, "/usr/lib/postgresql/9.4/bin/psql", got)

	// without a default, a missing property is an error
	_, err = tpl.Resolve(Properties{})
	require.Error(t, err)
}

func TestParseTemplateDefault(t *testing.T) {
	tpl, err := ParseTemplate("%(prop:cap_py_bin:-python)s")
	require.NoError(t, err)

	got, err := tpl.Resolve(Properties{"cap_py_bin": "python2.6"})
	require.NoError(t, err)
	assert.Equal(t, "python2.6", got)

	got, err = tpl.Resolve(Properties{})
	require.NoError(t, err)
	assert.Equal(t, "python", got)
}

func TestParseTemplateEmptyDefault(t *testing.T) {
	tpl, err := ParseTemplate("%(prop:cap_pg_port:-)s")
	require.NoError(t, err)
	got, err := tpl.Resolve(Properties{})
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestParseTemplateMixedSegments(t *testing.T) {
	tpl, err := ParseTemplate("%(prop:pg_version:-)s/main")
	require.NoError(t, err)
	got, err := tpl.Resolve(Properties{"pg_version": "9.4"})
	require.NoError(t, err)
	assert.Equal(t, "9.4/main", got)
}

func TestParseTemplateErrors(t *testing.T) {
	_, err := ParseTemplate("%(prop:name")
	require.Error(t, err)

	_, err = ParseTemplate("%(src:workdir)s")
	require.Error(t, err)

	_, err = ParseTemplate("%(prop::-x)s")
	require.Error(t, err)
}

// environWorker declares enough capabilities to exercise the whole
// property/environment glue.
func environWorker(t *testing.T) *capability.Worker {
	t.Helper()
	return newWorker(t, "two-pg-one-py", capability.Decl{
		"without_env": {"1.2": {"port": "5000"}},
		"python":      {"2.6": {"bin": "python2.6"}},
		"postgresql": {
			"9.1": {"port": "5432"},
			"9.2": {"port": "5433", "bin": "/usr/lib/postgresql/9.2/bin"},
		},
	})
}

func TestSetPropertiesMakeEnviron(t *testing.T) {
	d := New([]*capability.Worker{environWorker(t)}, testInfos())
	var factory StepList
	env, err := d.SetPropertiesMakeEnviron(context.Background(), &factory,
		[]string{"python", "postgresql", "without_env"})
	require.NoError(t, err)

	// cap(...) lookups rewrite to the abbrev-keyed properties
	require.Len(t, env["PGPORT"], 1)
	assert.Equal(t, "%(prop:cap_pg_port:-)s", env["PGPORT"][0].String())
	require.Len(t, env["PYTHONBIN"], 1)
	assert.Equal(t, "%(prop:cap_py_bin:-python)s", env["PYTHONBIN"][0].String())

	// PATH prepends instead of replacing
	require.Len(t, env["PATH"], 2)
	assert.Equal(t, "%(prop:cap_pg_bin:-)s", env["PATH"][0].String())
	assert.Equal(t, "${PATH}", env["PATH"][1].String())

	// plain property references pass through untouched
	assert.Equal(t, "%(prop:pg_version:-)s/main", env["PGCLUSTER"][0].String())

	// one property step per capability, in request order
	require.Len(t, factory, 3)
	names := []string{factory[0].Name(), factory[1].Name(), factory[2].Name()}
	assert.Equal(t, []string{"props_python", "props_postgresql", "props_without_env"}, names)

	step, ok := factory[1].(*SetCapabilityProperties)
	require.True(t, ok)
	assert.Equal(t, "postgresql", step.CapabilityName)
	assert.Equal(t, "pg_version", step.VersionProp)
	assert.Equal(t, "pg", step.Abbrev)
}

func TestSetPropertiesMakeEnvironUnknownCapability(t *testing.T) {
	d := New([]*capability.Worker{environWorker(t)}, testInfos())
	var factory StepList
	_, err := d.SetPropertiesMakeEnviron(context.Background(), &factory, []string{"selenium"})
	var unknown *UnknownCapabilityError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "selenium", unknown.Name)
}

func TestEnvironRoundTrip(t *testing.T) {
	// dispatch for pg 9.2, run the injected steps, resolve the environment:
	// the full property chain from declaration to shell values
	worker := environWorker(t)
	d := New([]*capability.Worker{worker}, testInfos())

	var factory StepList
	env, err := d.SetPropertiesMakeEnviron(context.Background(), &factory,
		[]string{"python", "postgresql"})
	require.NoError(t, err)

	props := Properties{"pg_version": "9.2"}
	ctx := context.Background()
	for _, step := range factory {
		require.NoError(t, step.Execute(ctx, worker, props))
	}

	resolve := func(key string) string {
		var out string
		for _, tpl := range env[key] {
			s, err := tpl.Resolve(props)
			require.NoError(t, err)
			out += s
		}
		return out
	}
	assert.Equal(t, "5433", resolve("PGPORT"))
	assert.Equal(t, "python2.6", resolve("PYTHONBIN"))
	assert.Equal(t, "9.2/main", resolve("PGCLUSTER"))
	assert.Equal(t, "/usr/lib/postgresql/9.2/bin${PATH}", resolve("PATH"))
	assert.Equal(t, "", resolve("PGHOST"), "unset param with empty default")
}
