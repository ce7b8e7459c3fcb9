// Package ident provides the small collaborators the graph and store need
// to mint identifiers and timestamps: id generators, clocks, URL cleaning
// and date parsing.
//
// Generated identifiers are JSON-LD blank nodes ("_:" prefix) so content
// derived identifiers can later replace them without clobbering explicit
// ids supplied by callers.
package ident
