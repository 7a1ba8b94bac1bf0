// Package schema declares the per-entity field tables that drive parsing.
//
// This package contains type definitions and the CUE compiler that builds
// them. All other internal packages import schema; schema imports nothing
// internal. This keeps the schema layer foundational with no circular
// dependencies.
//
// Key design constraints:
//   - Field lookup is an explicit map access with an "unknown field" outcome,
//     never reflection over a live record type
//   - Field names are stored lower-cased; remote keys are folded before lookup
//   - An EntitySpec is immutable after compilation; managers never mutate it
package schema
