package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anybox/capdispatch/capability"
)

func pgStep() *SetCapabilityProperties {
	return &SetCapabilityProperties{
		CapabilityName: "postgresql",
		VersionProp:    "pg_version",
		Abbrev:         "pg",
	}
}

func TestStepSetsVersionAndParams(t *testing.T) {
	worker := newWorker(t, "wpg", capability.Decl{
		"postgresql": {"9.4": {"port": "5434"}},
	})
	props := Properties{}
	require.NoError(t, pgStep().Execute(context.Background(), worker, props))

	assert.Equal(t, Properties{
		"pg_version":  "9.4",
		"cap_pg_port": "5434",
	}, props)
}

func TestStepHonorsChosenVersion(t *testing.T) {
	worker := newWorker(t, "wpg", capability.Decl{
		"postgresql": {
			"9.1": {"port": "5432"},
			"9.2": {"port": "5433"},
		},
	})
	props := Properties{"pg_version": "9.1"}
	require.NoError(t, pgStep().Execute(context.Background(), worker, props))
	assert.Equal(t, "5432", props["cap_pg_port"])
}

func TestStepChosenVersionNotDeclared(t *testing.T) {
	worker := newWorker(t, "wpg", capability.Decl{
		"postgresql": {"9.1": nil},
	})
	props := Properties{"pg_version": "9.4"}
	require.Error(t, pgStep().Execute(context.Background(), worker, props))
}

func TestStepPicksHighestWhenUnpinned(t *testing.T) {
	worker := newWorker(t, "wpg", capability.Decl{
		"postgresql": {
			"9.1":  {"port": "5432"},
			"9.10": {"port": "5440"},
			"9.2":  {"port": "5433"},
		},
	})
	props := Properties{}
	require.NoError(t, pgStep().Execute(context.Background(), worker, props))
	assert.Equal(t, "9.10", props["pg_version"])
	assert.Equal(t, "5440", props["cap_pg_port"])
}

func TestStepNarrowsByBuildRequires(t *testing.T) {
	worker := newWorker(t, "wpg", capability.Decl{
		"postgresql": {
			"9.1": {"port": "5432"},
			"9.4": {"port": "5434"},
		},
	})
	props := Properties{PropBuildRequires: []string{"postgresql <= 9.2"}}
	require.NoError(t, pgStep().Execute(context.Background(), worker, props))
	assert.Equal(t, "9.1", props["pg_version"])
	assert.Equal(t, "5432", props["cap_pg_port"])
}

func TestStepRequiresLeaveNothing(t *testing.T) {
	worker := newWorker(t, "wpg", capability.Decl{
		"postgresql": {"9.1": nil},
	})
	props := Properties{PropBuildRequires: []string{"postgresql >= 9.2"}}
	require.Error(t, pgStep().Execute(context.Background(), worker, props))
}

func TestStepOtherRequirementsIgnored(t *testing.T) {
	worker := newWorker(t, "wpg", capability.Decl{
		"postgresql": {"9.1": {"port": "5432"}},
	})
	props := Properties{PropBuildRequires: []string{"rabbitmq >= 2.0"}}
	require.NoError(t, pgStep().Execute(context.Background(), worker, props))
	assert.Equal(t, "9.1", props["pg_version"])
}

func TestStepUndeclaredCapabilityIsNoop(t *testing.T) {
	worker := newWorker(t, "bare", capability.Decl{})
	props := Properties{}
	require.NoError(t, pgStep().Execute(context.Background(), worker, props))
	assert.Empty(t, props)
}

func TestStepMarkerCapability(t *testing.T) {
	worker := newWorker(t, "wkey", capability.Decl{
		"ssh_key": nil,
	})
	step := &SetCapabilityProperties{CapabilityName: "ssh_key", Abbrev: "ssh"}
	props := Properties{}
	require.NoError(t, step.Execute(context.Background(), worker, props))
	assert.Empty(t, props, "markers have neither version nor params")
}

func TestStepName(t *testing.T) {
	assert.Equal(t, "props_postgresql", pgStep().Name())
}
