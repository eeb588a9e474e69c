package session

import (
	"encoding/json"
	"errors"
	"strconv"
)

// ErrCorruptRecord is returned by Decode when the stored entry cannot be
// interpreted as a session record. Stores map it to absence: a corrupt
// entry must read as "nobody is logged in", never as a crash.
var ErrCorruptRecord = errors.New("corrupt session record")

// schemaVersionCurrent is the version written by Encode. Version 0 (no "v"
// field) is the legacy storefront format and is still readable; the codec
// is append-only and never reinterprets old fields.
const schemaVersionCurrent = 1

const (
	fieldVersion     = "v"
	fieldUserID      = "user_id"
	fieldEmail       = "email"
	fieldDisplayName = "display_name"
	fieldRole        = "role"

	// Legacy field names written by the original storefront client.
	legacyUserID      = "id"
	legacyDisplayName = "nombre"
	legacyRole        = "rol"
)

// Encode serializes a record in the current schema. Retained attributes are
// re-emitted byte-for-byte; canonical fields win on a key collision.
func Encode(r *Record) ([]byte, error) {
	if r == nil {
		return nil, ErrCorruptRecord
	}

	out := make(map[string]json.RawMessage, len(r.Attributes)+5)
	for k, v := range r.Attributes {
		out[k] = v
	}

	out[fieldVersion] = json.RawMessage(strconv.Itoa(schemaVersionCurrent))
	for _, f := range []struct {
		key   string
		value string
	}{
		{fieldUserID, r.UserID},
		{fieldEmail, r.Email},
		{fieldDisplayName, r.DisplayName},
		{fieldRole, r.Role},
	} {
		enc, err := json.Marshal(f.value)
		if err != nil {
			return nil, err
		}
		out[f.key] = enc
	}

	return json.Marshal(out)
}

// Decode parses a stored entry. It accepts the current schema and the
// legacy versionless storefront format; every unconsumed top-level field is
// retained verbatim in Attributes. Anything unparseable returns
// [ErrCorruptRecord].
func Decode(data []byte) (*Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, ErrCorruptRecord
	}

	if raw, ok := fields[fieldVersion]; ok {
		var v int
		if err := json.Unmarshal(raw, &v); err != nil || v < 0 || v > schemaVersionCurrent {
			return nil, ErrCorruptRecord
		}
		delete(fields, fieldVersion)
	}

	r := &Record{}
	var err error

	if r.UserID, err = takeString(fields, fieldUserID); err != nil {
		return nil, err
	}
	if r.UserID == "" {
		if r.UserID, err = takeScalar(fields, legacyUserID); err != nil {
			return nil, err
		}
	}

	if r.Email, err = takeString(fields, fieldEmail); err != nil {
		return nil, err
	}

	if r.DisplayName, err = takeString(fields, fieldDisplayName); err != nil {
		return nil, err
	}
	if r.DisplayName == "" {
		if r.DisplayName, err = takeString(fields, legacyDisplayName); err != nil {
			return nil, err
		}
	}

	if r.Role, err = takeString(fields, fieldRole); err != nil {
		return nil, err
	}
	if r.Role == "" {
		if r.Role, err = takeString(fields, legacyRole); err != nil {
			return nil, err
		}
	}

	if len(fields) > 0 {
		r.Attributes = fields
	}
	return r, nil
}

// takeString consumes a string field from the decoded map. A present field
// of the wrong type corrupts the whole record.
func takeString(fields map[string]json.RawMessage, key string) (string, error) {
	raw, ok := fields[key]
	if !ok {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", ErrCorruptRecord
	}
	delete(fields, key)
	return s, nil
}

// takeScalar consumes a field that may be a string or a number (the legacy
// client stored numeric user IDs) and renders it as a string.
func takeScalar(fields map[string]json.RawMessage, key string) (string, error) {
	raw, ok := fields[key]
	if !ok {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		delete(fields, key)
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", ErrCorruptRecord
	}
	delete(fields, key)
	return n.String(), nil
}
