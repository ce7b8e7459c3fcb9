// Package observe encodes property mutations as observations and reduces
// conflicting observations into a materialized record.
//
// An Observation is one asserted mutation (Add, Delete or Replace) of one
// value of one property of one target, weighted by the credibility of its
// source. Observations are immutable once created; conflicting ones
// coexist until reduction.
//
// PRIORITY:
//
// Observations emitted together share an observation group and never
// outrank each other. Across groups, higher credibility wins and ties go
// to the later timestamp. Sort extends this partial order into a total
// order (group, index and id break the remaining ties) so reduction is
// independent of input order.
//
// REDUCTION, per property, highest priority first:
//  1. a Delete discards every observation strictly below it
//  2. a Replace discards every strictly lower observation whose value
//     matches its previous value (all of them for a wildcard Replace)
//  3. the surviving values are deduplicated: one value becomes a scalar,
//     several become a list, none leaves the property absent
package observe
