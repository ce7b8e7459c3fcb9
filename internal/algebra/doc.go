// Package algebra implements the record algebra: merge, clean, set-value,
// identity assignment and deduplication.
//
// Every operation works on a copy. Inputs are never mutated, so callers
// can keep references to records they pass in.
//
// Identity-bearing mutations fail loudly: merging records that are not
// the same entity, or assigning an id with nothing to assign, returns an
// error rather than producing a record with the wrong identity.
package algebra
