// Package store provides SQLite-backed persistence for synchronized records.
//
// One table holds every entity type. Each row carries two identities:
//
//   - storage_id: the local primary key, assigned once on first save and
//     stable across re-syncs
//   - remote_identity: the canonical JSON of the entity's remote key/value
//     set, unique per entity type so a re-fetched remote entity always maps
//     back to the same row
//
// Field values are stored as canonical JSON text (sorted keys, RFC 3339
// timestamps), so a re-read record exposes JSON-typed values rather than the
// parser's in-memory types. Reconciliation only depends on emptiness, never
// on the concrete dynamic type, so this is lossless for the engine.
//
// The fetch-and-persist sequence runs inside WithTx: either every record of
// a successful parse commits, or none do.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
