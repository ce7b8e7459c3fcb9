// Package stats computes per-value confidence statistics from the
// observations that survive reduction.
//
// Confidence combines the credibility of every observation supporting a
// value. How independent those observations are assumed to be is a
// Combiner strategy: Independent treats each observation as separate
// evidence, PerSource collapses repeats from one source first.
package stats
