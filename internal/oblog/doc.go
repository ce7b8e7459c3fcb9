// Package oblog stores the append-only observation log.
//
// Two implementations share the Log interface: MemLog keeps observations
// in process memory, SQLiteLog keeps them in a SQLite database (a file, or
// ":memory:" for an indexed in-process log). Both return a target's
// observations in append order, which is the order reduction sees them.
//
// Appending an observation whose id is already logged is a no-op, so
// replaying the same batch twice does not double-count evidence.
package oblog
