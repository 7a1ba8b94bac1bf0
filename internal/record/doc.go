// Package record defines the in-memory instance type produced by parsing
// and consumed by reconciliation and storage.
//
// An Instance starts life as a fresh parse of a remote resource (no storage
// identity), is merged against any persisted record sharing its remote
// identity, and becomes persisted once the store assigns a storage id. The
// two identities are distinct: the remote identity is a set of field values
// from the external system, the storage identity is the local primary key.
//
// Field values are dynamically typed (the remote API is loosely typed);
// helpers in this package give the rest of the engine a single definition of
// "empty" and a deterministic serialization of field maps.
package record
