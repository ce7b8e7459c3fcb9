// Package ld provides the record model shared by every other package:
// typed Values, ordered Records, identity, ordering and structural diff.
//
// This package is the foundational layer. All other internal packages
// import ld; ld imports only internal/ident for date handling.
//
// Key design constraints:
//   - A Record is valid iff it carries at least one type label
//   - type and id are always treated as sets, even when singular
//   - Absent properties and JSON null are the same thing (a nil Value)
//   - Lists keep insertion order for emission but compare as sets
//   - Canonical JSON (sorted keys, NFC) is the only stringification used
//     for ordering and structural equality
package ld
