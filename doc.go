// Package loom provides a minimal singleton dependency-injection container
// for Go.
//
// The model is deliberately small: a service is identified by a Descriptor
// (an identity token created with di.Define), a descriptor declares its
// dependencies under local string keys as either eager or lazy, and a
// Container resolves descriptors recursively, constructing each service at
// most once. Eager cycles are detected and reported; lazy dependencies break
// cycles by deferring resolution behind a zero-argument accessor.
//
// Wiring stays explicit: descriptors and declarations live in your
// composition root, not behind struct tags or reflection.
//
// See subpackages:
//   - di: the container library
//   - cmd/loomgen: generator turning a JSON wiring manifest into descriptor
//     boilerplate
//   - examples/*: runnable demos, from a linear graph to a container-wired
//     HTTP server
package loom
