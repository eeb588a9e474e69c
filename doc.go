// Package goSessionSync keeps a single authenticated-identity record
// consistent across independent execution contexts that share one durable,
// origin-scoped store, without a server push channel.
//
// Each execution context owns a [Provider] and a bus.Bus pair. Writes go
// through the store and are announced to every *other* context over the
// transport; the writer converges through the paired local publish. A
// writer never receives its own cross-context signal. That asymmetry is the
// central correctness hazard the package is built around, and every write
// path pairs the store write with a local publish.
//
// # Architecture boundaries
//
// goSessionSync is the public surface. It exposes [Provider], [Builder],
// [Config], the [Role]/[RoleSet] model, the [Decide] access predicate, and
// the [Notifier] role-change state machine. Audit dispatch and metrics
// accounting live under internal/ and are never exported directly.
//
// # What this package must NOT do
//
//   - Interpret the stored bearer credential (it is opaque to the core).
//   - Validate identity against the remote auth API (out of scope; the core
//     only reacts to the identity payload's presence or absence).
//   - Merge concurrent writes. A record is wholly replaced, never patched;
//     last-write-wins is the accepted correctness model.
//
// # Consistency contract
//
// After any write, the writer's context reflects the new record immediately
// and every other open context converges within one debounce window. No
// stronger cross-context ordering is guaranteed.
package goSessionSync
