package normalizer

import "encoding/json"

// itemRule locates an item list inside a response object.
type itemRule func(raw json.RawMessage, fields map[string]json.RawMessage, key string) ([]json.RawMessage, bool)

// itemRules are tried in order; the first match wins.
var itemRules = []itemRule{
	// {"items": [...]}
	func(_ json.RawMessage, fields map[string]json.RawMessage, _ string) ([]json.RawMessage, bool) {
		return asArray(fields["items"])
	},
	// {"<key>": {"items": [...]}}
	func(_ json.RawMessage, fields map[string]json.RawMessage, key string) ([]json.RawMessage, bool) {
		nested, ok := asObject(fields[key])
		if !ok {
			return nil, false
		}
		return asArray(nested["items"])
	},
	// {"<any>": {"items": [...]}}, members visited in document order
	func(raw json.RawMessage, _ map[string]json.RawMessage, _ string) ([]json.RawMessage, bool) {
		values, ok := objectValues(raw)
		if !ok {
			return nil, false
		}
		for _, v := range values {
			nested, ok := asObject(v)
			if !ok {
				continue
			}
			if items, ok := asArray(nested["items"]); ok {
				return items, true
			}
		}
		return nil, false
	},
}

// ExtractItems finds the item list in a search response.
//
// key is the collection name the response is expected to use ("tracks", "albums", "artists").
// A bare array is returned as is. A response with no recognizable list yields an empty slice.
func ExtractItems(raw json.RawMessage, key string) []json.RawMessage {
	if items, ok := asArray(raw); ok {
		return items
	}

	fields, ok := asObject(raw)
	if !ok {
		return []json.RawMessage{}
	}
	for _, rule := range itemRules {
		if items, ok := rule(raw, fields, key); ok {
			return items
		}
	}
	return []json.RawMessage{}
}

// Unwrap returns the "data" member of a response envelope, or raw itself when there is none.
func Unwrap(raw json.RawMessage) json.RawMessage {
	fields, ok := asObject(raw)
	if !ok {
		return raw
	}
	if data, ok := fields["data"]; ok && truthy(data) {
		return data
	}
	return raw
}
