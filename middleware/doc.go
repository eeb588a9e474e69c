// Package middleware adapts the pure access predicate to net/http route
// wrapping. The core decision logic lives in the root package; this
// package only maps decisions onto responses.
package middleware
