// Package store materializes records from the observation log.
//
// Writes (Post, Delete, Replace, Apply) append observations, re-reduce
// every touched target and, when the materialized record changes, notify
// the listeners registered for that target. Reads (Get, Search, Stats)
// work from the materialized records.
//
// A Store is single-threaded: it does no locking and callers serialize
// access. Dispatch is synchronous, so a listener that writes to the store
// recurses into it.
//
// Materialized records are cached by key. New rebuilds the cache from the
// log, so a store opened on an existing SQLite log resumes where the
// previous one stopped.
package store
