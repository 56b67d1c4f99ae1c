package user

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"time"
)

// Attribute names owned by this service. Everything else in a stored item is opaque.
const (
	FieldID       = "id"
	FieldLastPush = "last_push"
)

// TimeLayout matches the JavaScript Date#toJSON form already present in existing tables.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// ErrMalformedRecord is returned when a stored item cannot be decoded into a Record.
var ErrMalformedRecord = errors.New("malformed user record")

// Record is the per-user item the push gate reads and rewrites.
type Record struct {
	ID string

	// LastPush is when commands were last handed out for this user. Nil means never.
	LastPush *time.Time

	// Extra holds attributes this service does not own. They are written back unchanged.
	Extra map[string]any
}

// New returns an empty record for id, the state of a user that never pushed.
func New(id string) Record {
	return Record{ID: id}
}

// WithLastPush returns a copy of r with LastPush set to t. Extra is copied, not shared.
func (r Record) WithLastPush(t time.Time) Record {
	out := Record{
		ID:    r.ID,
		Extra: maps.Clone(r.Extra),
	}
	ts := t.UTC()
	out.LastPush = &ts
	return out
}

// Attributes flattens the record into a single name -> value mapping.
func (r Record) Attributes() map[string]any {
	attrs := make(map[string]any, len(r.Extra)+2)
	for k, v := range r.Extra {
		attrs[k] = v
	}
	attrs[FieldID] = r.ID
	if r.LastPush != nil {
		attrs[FieldLastPush] = FormatTime(*r.LastPush)
	} else {
		delete(attrs, FieldLastPush)
	}
	return attrs
}

// FromAttributes builds a Record for id from a stored item. The id argument wins over
// whatever id the item carries.
func FromAttributes(id string, attrs map[string]any) (Record, error) {
	rec := Record{ID: id}
	for k, v := range attrs {
		switch k {
		case FieldID:
		case FieldLastPush:
			if v == nil {
				continue
			}
			s, ok := v.(string)
			if !ok {
				return Record{}, fmt.Errorf("%w: %s is %T, want string", ErrMalformedRecord, FieldLastPush, v)
			}
			ts, err := ParseTime(s)
			if err != nil {
				return Record{}, fmt.Errorf("%w: %s: %v", ErrMalformedRecord, FieldLastPush, err)
			}
			rec.LastPush = &ts
		default:
			if rec.Extra == nil {
				rec.Extra = make(map[string]any)
			}
			rec.Extra[k] = v
		}
	}
	return rec, nil
}

// MarshalJSON encodes the record as a flat JSON object.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Attributes())
}

// UnmarshalJSON decodes a flat JSON object. Numbers are kept as json.Number so
// opaque values survive a round trip byte for byte.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var attrs map[string]any
	if err := dec.Decode(&attrs); err != nil {
		return err
	}

	id, _ := attrs[FieldID].(string)
	rec, err := FromAttributes(id, attrs)
	if err != nil {
		return err
	}
	*r = rec
	return nil
}

// FormatTime renders t in TimeLayout (UTC, millisecond precision).
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime accepts TimeLayout and any RFC 3339 timestamp.
func ParseTime(s string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return ts.UTC(), nil
}
