// Package deepjson decodes arbitrary JSON into a tree that preserves object
// key order and supports depth-first searches for named fields at any depth.
//
// The external services this project reads from do not keep their response
// schema stable. Instead of fixed-path parsing, callers search the decoded
// tree for the few field names that matter and ignore everything around them.
package deepjson

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Kind discriminates the variants of Value.
type Kind int

// Value kinds.
const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

// Member is a single key/value pair of an Object, in document order.
type Member struct {
	Key   string
	Value Value
}

// Value is one node of a decoded JSON document.
type Value struct {
	kind    Kind
	str     string
	num     json.Number
	boolean bool
	arr     []Value
	obj     []Member
}

// Kind returns the variant of v.
func (v Value) Kind() Kind { return v.kind }

// Members returns the object members in document order, or nil.
func (v Value) Members() []Member { return v.obj }

// Elems returns the array elements in order, or nil.
func (v Value) Elems() []Value { return v.arr }

// Scalar returns the string form of a string or number node. Numbers keep
// their exact document text, so 64-bit ids survive undamaged.
func (v Value) Scalar() (string, bool) {
	switch v.kind {
	case String:
		return v.str, true
	case Number:
		return v.num.String(), true
	default:
		return "", false
	}
}

// Parse decodes a complete JSON document from data.
func Parse(data []byte) (Value, error) {
	return Decode(strings.NewReader(string(data)))
}

// Decode decodes a complete JSON document from r.
func Decode(r io.Reader) (Value, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, fmt.Errorf("decode json tree: %w", err)
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return Value{}, fmt.Errorf("unexpected delimiter %q", t.String())
		}
	case string:
		return Value{kind: String, str: t}, nil
	case json.Number:
		return Value{kind: Number, num: t}, nil
	case bool:
		return Value{kind: Bool, boolean: t}, nil
	case nil:
		return Value{kind: Null}, nil
	default:
		return Value{}, fmt.Errorf("unexpected token %v", tok)
	}
}

func decodeObject(dec *json.Decoder) (Value, error) {
	var members []Member
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Value{}, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return Value{}, fmt.Errorf("object key is %v, not a string", keyTok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return Value{}, err
		}
		members = append(members, Member{Key: key, Value: val})
	}
	// Consume the closing '}'.
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return Value{kind: Object, obj: members}, nil
}

func decodeArray(dec *json.Decoder) (Value, error) {
	var elems []Value
	for dec.More() {
		val, err := decodeValue(dec)
		if err != nil {
			return Value{}, err
		}
		elems = append(elems, val)
	}
	// Consume the closing ']'.
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return Value{kind: Array, arr: elems}, nil
}

// First depth-first searches v for a field named key and returns the string
// form of the first scalar value found. Objects are walked in document key
// order, arrays in element order, so the result is deterministic for a given
// document. A matching key whose value is not a scalar contributes nothing
// itself but its subtree is still searched.
func (v Value) First(key string) (string, bool) {
	var found string
	ok := v.walk(func(k, val string) bool {
		if k != key {
			return true
		}
		found = val
		return false
	})
	return found, !ok
}

// Collect depth-first searches v and returns the string form of every scalar
// value held under any of the given keys, in document order.
func (v Value) Collect(keys ...string) []string {
	var out []string
	v.walk(func(k, val string) bool {
		for _, want := range keys {
			if k == want {
				out = append(out, val)
				break
			}
		}
		return true
	})
	return out
}

// walk visits every object member with a non-empty scalar value, depth first
// in document order. fn returns false to stop the walk early; walk then
// returns false as well.
func (v Value) walk(fn func(key, scalar string) bool) bool {
	switch v.kind {
	case Object:
		for _, m := range v.obj {
			if s, ok := m.Value.Scalar(); ok && s != "" {
				if !fn(m.Key, s) {
					return false
				}
			}
			if !m.Value.walk(fn) {
				return false
			}
		}
	case Array:
		for _, e := range v.arr {
			if !e.walk(fn) {
				return false
			}
		}
	}
	return true
}
