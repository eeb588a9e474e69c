// Package bus carries the "session changed" topic between subscribers
// within one execution context and across contexts of the same origin.
//
// A [Bus] is strictly context-local: PublishLocal delivers synchronously to
// this context's subscribers and nowhere else. Cross-context signals arrive
// through a [Transport]; every announce is tagged with the writing
// context's ID, and each bus drops signals carrying its own ID. The writer
// therefore never receives its own cross-context signal. The asymmetry is
// part of the protocol, not an accident, and every write path must pair the
// store write with PublishLocal.
//
// Subscriptions are scoped resources: Subscribe returns an unsubscribe
// function the caller must invoke on teardown. A panicking handler is
// recovered and counted; it cannot prevent other handlers, or the write
// path behind the publish, from completing.
package bus
