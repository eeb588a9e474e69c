package session

import (
	"bytes"
	"encoding/json"
)

// Record is the authoritative snapshot of who is logged in. At most one
// Record is authoritative per origin at any instant; execution contexts may
// transiently cache a stale copy but converge within one debounce window.
//
// Record instances are intended to be written once and then treated as
// immutable; use [Record.Clone] before mutating a shared copy.
type Record struct {
	UserID      string
	Email       string
	DisplayName string

	// Role is the verbatim wire string from the remote auth API. The core
	// never rewrites it; interpretation happens at the authorization
	// boundary and fails closed on anything unrecognized.
	Role string

	// Attributes carries every additional top-level field the remote API
	// returned, byte-for-byte. The core never interprets them.
	Attributes map[string]json.RawMessage
}

// Equal reports whether two records are bit-identical: all identity fields
// match and every retained attribute payload matches byte-for-byte. This is
// the difference test that drives the provider's version stamp.
func (r *Record) Equal(o *Record) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.UserID != o.UserID ||
		r.Email != o.Email ||
		r.DisplayName != o.DisplayName ||
		r.Role != o.Role {
		return false
	}
	if len(r.Attributes) != len(o.Attributes) {
		return false
	}
	for k, v := range r.Attributes {
		ov, ok := o.Attributes[k]
		if !ok || !bytes.Equal(v, ov) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	if r.Attributes != nil {
		out.Attributes = make(map[string]json.RawMessage, len(r.Attributes))
		for k, v := range r.Attributes {
			out.Attributes[k] = append(json.RawMessage(nil), v...)
		}
	}
	return &out
}
