// Package sync implements the fetch-and-persist orchestrator.
//
// A Manager drives the whole pipeline for one entity type: it invokes the
// transport, normalizes and coerces the raw response into instances, and
// reconciles each instance against the store inside one transaction.
//
// ARCHITECTURE:
//
// Single synchronous call chain:
// transport call -> normalize -> coerce -> reconcile -> persist. The
// transport call is the only operation expected to block on I/O; there is no
// internal parallelism, no retry logic, and no cancellation beyond the
// context handed to the transport and the store.
//
// Failure atomicity:
// Fetch wraps reconciliation and persistence of the whole batch in one store
// transaction. A failure while persisting record N rolls back records
// 1..N-1; partial syncs are never visible to readers.
//
// Identity model:
// The storage identity is generated locally (UUIDv7) on first save and
// adopted from the existing record on every later sync of the same remote
// identity. Re-fetching the same remote entity can never create a duplicate
// row.
//
// Windowing:
// Timeline retrieval is the same orchestrator with a pluggable post-filter
// (Windower), not a separate manager type.
package sync
