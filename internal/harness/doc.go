// Package harness replays scenario files against a fresh store.
//
// # Scenario Format
//
// Scenarios are YAML files. Each step performs exactly one operation:
//
//	name: alice_alicia
//	description: "Conflicting names from two sources coexist"
//	vocab: vocab.cue            # optional, relative to the scenario file
//	steps:
//	  - listen: { type: Person, id: p1 }
//	  - post: { type: Person, id: p1, name: Alice }
//	    meta: { credibility: 0.9, timestamp: 2024-01-01T00:00:00Z, source: crm }
//	  - delete: { type: Person, id: p1 }
//	    property: name
//	    meta: { credibility: 1 }
//	  - replace: { type: Person, id: p1 }
//	    property: name
//	    old: Alice              # omit for a wildcard replace
//	    new: Alicia
//	  - get: { type: Person, id: p1 }
//	    expect: { name: [Alice, Alicia] }
//	  - search: { age: { $gt: 25 } }
//	    negative: { name: Bob }
//	    expect_count: 1
//	  - stats: { type: Person, id: p1 }
//	    property: name
//	    expect_confidence: { Alice: 0.9 }
//
// Mappings keep their key order, so records read from YAML flatten the
// same way their JSON equivalents do. A step may set expect_error to
// require that its operation fails.
//
// # Deterministic Testing
//
// Every run uses:
//   - An in-memory SQLite observation log (isolated per run)
//   - Sequential ids ("g-1", "g-2", ...) for blank nodes and groups
//   - testutil.DeterministicClock for steps without a timestamp
//
// so a scenario produces the same trace on every run, which is what
// RunWithGolden compares against testdata/golden/<name>.golden.
package harness
