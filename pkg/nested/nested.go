// Package nested provides null-safe lookups into partially-decoded JSON
// documents. Session bodies keep loosely-structured bags as
// map[string]json.RawMessage; these helpers answer "is this deep field
// present" without every caller hand-rolling the same decode chain.
package nested

import "encoding/json"

// Lookup walks an object tree by key path and returns the raw value at the
// end of the path. Any missing key, JSON null, or non-object intermediate
// reports absence.
func Lookup(raw json.RawMessage, path ...string) (json.RawMessage, bool) {
	cur := raw
	for _, key := range path {
		if len(cur) == 0 {
			return nil, false
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(cur, &obj); err != nil {
			return nil, false
		}
		next, ok := obj[key]
		if !ok || isNull(next) {
			return nil, false
		}
		cur = next
	}
	if isNull(cur) {
		return nil, false
	}
	return cur, true
}

// LookupBag is Lookup starting from a bag instead of a raw value.
func LookupBag(bag map[string]json.RawMessage, path ...string) (json.RawMessage, bool) {
	if len(path) == 0 {
		return nil, false
	}
	head, ok := bag[path[0]]
	if !ok || isNull(head) {
		return nil, false
	}
	return Lookup(head, path[1:]...)
}

// HasBag reports whether the path resolves to a non-null value in a bag.
func HasBag(bag map[string]json.RawMessage, path ...string) bool {
	_, ok := LookupBag(bag, path...)
	return ok
}

// StringBag returns the string at the path in a bag.
func StringBag(bag map[string]json.RawMessage, path ...string) (string, bool) {
	v, ok := LookupBag(bag, path...)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", false
	}
	return s, true
}

// BoolBag returns the bool at the path in a bag; absent or non-bool is false.
func BoolBag(bag map[string]json.RawMessage, path ...string) bool {
	v, ok := LookupBag(bag, path...)
	if !ok {
		return false
	}
	var b bool
	if err := json.Unmarshal(v, &b); err != nil {
		return false
	}
	return b
}

// Count returns the number of entries when the value is a JSON object or
// array, zero otherwise.
func Count(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		return len(obj)
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err == nil {
		return len(arr)
	}
	return 0
}

// CloneBag copies a bag one level deep. Raw values are shared; they are
// treated as immutable once decoded.
func CloneBag(bag map[string]json.RawMessage) map[string]json.RawMessage {
	if bag == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(bag))
	for k, v := range bag {
		out[k] = v
	}
	return out
}

// MergeBag overwrites dst per key with src entries (shallow merge), allocating
// dst when needed, and returns dst.
func MergeBag(dst, src map[string]json.RawMessage) map[string]json.RawMessage {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]json.RawMessage, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 4 && string(raw) == "null"
}
