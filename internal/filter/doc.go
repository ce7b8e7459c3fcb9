// Package filter implements the mapping-based filter DSL over records.
//
// A filter is a Value. A mapping's keys are either plain property names,
// which descend into the candidate's property, or operators prefixed with
// "$". Any non-mapping filter is shorthand for {$eq: value}. Conditions at
// one level are ANDed unless combined with $or.
//
// OPERATORS:
//
//	$and, $or     list of sub-filters
//	$not          sub-filter
//	$eq, $ne      identity equality (ld.IsSame)
//	$lt $le $gt $ge  ordering (ld.Compare); undefined never matches
//	$contains     every operand value IsSame some element of the candidate
//	$includes, $startsWith, $endsWith  string predicates
//	$regex        case-insensitive regular expression
//	$*            the candidate itself or any of its property values
//
// ARCHITECTURE:
//
// Parsing and evaluation are separate passes:
//
//	[filter Value] → Parse → [Node AST] → Eval(candidate) → bool
//
// Node is a sealed interface; only types in this package implement it, so
// Eval's type switch is exhaustive. Parse reports malformed filters as
// *SyntaxError. The convenience entry points (Match, Filter,
// MeetsFilterParams) are read-only queries and degrade to false or an
// empty result instead.
package filter
