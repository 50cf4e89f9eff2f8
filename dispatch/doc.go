// Package dispatch expands declarative capability requirements into concrete
// builder variants and the property/environment glue their build steps need.
//
// A Dispatcher is constructed once per configuration pass from an immutable
// worker roster and a capability-info table. MakeBuilders multiplies a base
// builder over the versions found for each build-for filter, prunes
// combinations no worker satisfies, and returns one descriptor per surviving
// variant. SetPropertiesMakeEnviron injects the run-time property step for a
// set of capabilities and returns the deferred environment templates that
// resolve against those properties during job execution.
//
// Dispatch is a pure in-memory computation: no locks, no I/O, safe to call
// concurrently over the same Dispatcher.
package dispatch
