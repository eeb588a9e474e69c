// Package audit implements async event dispatching for session-lifecycle
// and synchronization operations. The dispatcher decouples emitters from
// sink latency: emits never block the reconciliation or write path when
// DropIfFull is set.
package audit
