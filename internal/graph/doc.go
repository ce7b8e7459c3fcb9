// Package graph converts between nested record graphs and node tables.
//
// Flatten walks a nested record and produces a node table: one entry per
// entity, root first, with every nested entity replaced by its reference.
// Value objects (the vocabulary's inline types) and untyped objects stay
// embedded.
//
// Unflatten goes the other way, resolving references against a node
// table. Self-referential and cyclic graphs are handled with an explicit
// visited arena shared across the whole call: a reference to the record
// being expanded, or to any record already expanded, is left as a
// reference. MaxDepth is a last-resort ceiling.
package graph
