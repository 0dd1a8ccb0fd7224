// Package internal holds shared primitives that are not part of the public
// API surface.
package internal
