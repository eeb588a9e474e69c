// Package session provides the durable session-record model, its versioned
// JSON codec, and the origin-scoped stores the synchronization core reads
// and writes through.
//
// # Absence model
//
// "Nobody is logged in" is the safe failure mode for every read: a missing
// entry and a corrupt entry both load as absent (nil record, nil error).
// Only infrastructure failure is an error.
//
// # Architecture boundaries
//
// This package owns persistence and encoding. It does NOT evaluate roles,
// make authorization decisions, or publish local change signals; those
// responsibilities belong to the root package and the bus. The one
// propagation duty it has is the post-write announce: after a successful
// Save or Clear the store notifies every *other* execution context through
// its [Announcer]. The announce deliberately never reaches the writer's own
// context; callers pair every write with a local publish.
package session
