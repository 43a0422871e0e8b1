package normalizer

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// flexString reads a JSON string or number as a string. Anything else is "".
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexString(n.String())
		return nil
	}
	*f = ""
	return nil
}

// flexInt reads a JSON number or numeric string as an int. Anything else is 0.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			*f = flexInt(i)
			return nil
		}
		if fl, err := n.Float64(); err == nil {
			*f = flexInt(int(fl))
			return nil
		}
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			*f = flexInt(i)
			return nil
		}
	}
	*f = 0
	return nil
}

// flexBool reads true as true. Everything else is false.
type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	var v bool
	*f = flexBool(json.Unmarshal(b, &v) == nil && v)
	return nil
}

// flexList is a JSON array. A non-array reads as empty.
type flexList []json.RawMessage

func (f *flexList) UnmarshalJSON(b []byte) error {
	items, _ := asArray(b)
	*f = items
	return nil
}

// nameRef is an object carrying a name or title, or a bare string.
type nameRef struct {
	Name  flexString `json:"name"`
	Title flexString `json:"title"`
}

func (r *nameRef) UnmarshalJSON(b []byte) error {
	*r = nameRef{}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		r.Name = flexString(s)
		return nil
	}
	type plain nameRef
	var p plain
	if err := json.Unmarshal(b, &p); err == nil {
		*r = nameRef(p)
	}
	return nil
}

// nameList is an array of [nameRef]. A non-array reads as empty.
type nameList []nameRef

func (l *nameList) UnmarshalJSON(b []byte) error {
	items, _ := asArray(b)
	refs := make(nameList, 0, len(items))
	for _, item := range items {
		var r nameRef
		_ = r.UnmarshalJSON(item)
		refs = append(refs, r)
	}
	*l = refs
	return nil
}

// first returns the first non-empty value, mirroring a chain of "a || b || c".
func first[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// asArray reports whether b is a JSON array and returns its elements.
func asArray(b []byte) ([]json.RawMessage, bool) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '[' {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, false
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	return items, true
}

// asObject reports whether b is a JSON object and returns its fields.
func asObject(b []byte) (map[string]json.RawMessage, bool) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, false
	}
	return fields, true
}

// objectValues returns the member values of the JSON object b in document order.
func objectValues(b []byte) ([]json.RawMessage, bool) {
	dec := json.NewDecoder(bytes.NewReader(b))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, false
	}

	var values []json.RawMessage
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return nil, false
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, false
		}
		values = append(values, v)
	}
	return values, true
}

// truthy reports whether b is present and not null, false, 0 or "".
func truthy(b []byte) bool {
	switch s := string(bytes.TrimSpace(b)); s {
	case "", "null", "false", "0", `""`:
		return false
	default:
		return true
	}
}

// decode unmarshals b into v, ignoring malformed input.
func decode(b []byte, v any) {
	_ = json.Unmarshal(b, v)
}
