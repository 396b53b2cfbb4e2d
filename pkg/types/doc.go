// Package types defines the entities, query descriptors, configuration and
// standard errors shared by the Parktrack persistence core.
//
// The sqlite backend, the location engine and the CLI all depend on this
// package; it depends only on the standard library.
package types
