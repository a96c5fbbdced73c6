// Copyright (c) 2024 The Coil Contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package config is the dotted-path key/value collaborator described in
// spec.md §3/§8: a recursive value variant over
// {none,bool,i64,f64,string,array,object}, addressed by dot-separated
// paths, which the core treats read-only. Source text is parsed with
// gopkg.in/yaml.v3, which accepts both YAML and (since JSON is a YAML
// subset) plain JSON documents, satisfying the "JSON-shaped" contract
// with one real dependency instead of a hand-rolled parser.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"coil/internal/coilerr"
)

// Kind discriminates the Value sum type.
type Kind int

const (
	KindNone Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
)

// Value is the recursive config value. Only the field matching Kind is
// meaningful.
type Value struct {
	Kind   Kind
	Bool   bool
	Int    int64
	Float  float64
	String string
	Array  []Value
	Object map[string]Value
	// keys preserves object insertion order (Parse inserts keys sorted)
	// for round-tripping and
	// for Set's "root still has exactly one top-level key" guarantee.
	keys []string
}

func None() Value               { return Value{Kind: KindNone} }
func Bool(b bool) Value         { return Value{Kind: KindBool, Bool: b} }
func Int(i int64) Value         { return Value{Kind: KindInt, Int: i} }
func Float(f float64) Value     { return Value{Kind: KindFloat, Float: f} }
func String(s string) Value     { return Value{Kind: KindString, String: s} }
func Array(vs []Value) Value    { return Value{Kind: KindArray, Array: vs} }

func Object() Value {
	return Value{Kind: KindObject, Object: make(map[string]Value)}
}

// set inserts or replaces a key, preserving first-insertion order.
func (v *Value) set(key string, val Value) {
	if v.Object == nil {
		v.Object = make(map[string]Value)
	}
	if _, exists := v.Object[key]; !exists {
		v.keys = append(v.keys, key)
	}
	v.Object[key] = val
}

// Keys returns an object's keys in insertion order.
func (v Value) Keys() []string {
	out := make([]string, len(v.keys))
	copy(out, v.keys)
	return out
}

// Parse reads a YAML or JSON document into a root Value. The root has
// the document's own kind: an object for a mapping, an array or scalar
// otherwise, and None for an empty document.
func Parse(text []byte) (Value, error) {
	var raw interface{}
	if err := yaml.Unmarshal(text, &raw); err != nil {
		return Value{}, coilerr.New(coilerr.BadEncoding, "config parse: %v", err)
	}
	return fromRaw(raw), nil
}

func fromRaw(raw interface{}) Value {
	switch t := raw.(type) {
	case nil:
		return None()
	case bool:
		return Bool(t)
	case int:
		return Int(int64(t))
	case int64:
		return Int(t)
	case float64:
		if t == float64(int64(t)) {
			return Int(int64(t))
		}
		return Float(t)
	case string:
		return String(t)
	case []interface{}:
		arr := make([]Value, len(t))
		for i, e := range t {
			arr[i] = fromRaw(e)
		}
		return Array(arr)
	case map[string]interface{}:
		obj := Object()
		for _, k := range sortedKeys(t) {
			obj.set(k, fromRaw(t[k]))
		}
		return obj
	case map[interface{}]interface{}:
		obj := Object()
		conv := make(map[string]interface{}, len(t))
		for k, v := range t {
			conv[fmt.Sprintf("%v", k)] = v
		}
		for _, k := range sortedKeys(conv) {
			obj.set(k, fromRaw(conv[k]))
		}
		return obj
	default:
		return None()
	}
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// yaml.v3 already decodes mapping nodes in document order when using
	// yaml.Node; for the map[string]interface{} convenience path order is
	// lost, so callers that need exact order should decode via Node. Here
	// we accept map iteration order normalized by a stable string sort so
	// results are at least deterministic.
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

// toRaw converts a Value back to a plain interface{} tree for
// serialisation, the inverse of fromRaw.
func (v Value) toRaw() interface{} {
	switch v.Kind {
	case KindNone:
		return nil
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindString:
		return v.String
	case KindArray:
		out := make([]interface{}, len(v.Array))
		for i, e := range v.Array {
			out[i] = e.toRaw()
		}
		return out
	case KindObject:
		out := make(map[string]interface{}, len(v.Object))
		for k, val := range v.Object {
			out[k] = val.toRaw()
		}
		return out
	default:
		return nil
	}
}

// Serialize renders the Value tree back to YAML text.
func (v Value) Serialize() ([]byte, error) {
	out, err := yaml.Marshal(v.toRaw())
	if err != nil {
		return nil, coilerr.New(coilerr.Internal, "config serialize: %v", err)
	}
	return out, nil
}

// Get resolves a dot-separated path against the Value tree. Returns
// (value, true) on a hit, or (None, false) if any path segment is
// missing or descends into a non-object.
func (v Value) Get(path string) (Value, bool) {
	if path == "" {
		return v, true
	}
	cur := v
	for _, seg := range strings.Split(path, ".") {
		if cur.Kind != KindObject {
			return None(), false
		}
		next, ok := cur.Object[seg]
		if !ok {
			return None(), false
		}
		cur = next
	}
	return cur, true
}

// Set writes val at the dot-separated path, creating intermediate
// objects as needed, and returns a new root Value (the receiver is never
// mutated in place, keeping the config collaborator's "core treats it
// read-only" contract honest from the caller's point of view).
func (v Value) Set(path string, val Value) (Value, error) {
	if path == "" {
		return val, nil
	}
	segs := strings.Split(path, ".")
	return setRec(v, segs, val)
}

func setRec(v Value, segs []string, val Value) (Value, error) {
	if v.Kind != KindObject && v.Kind != KindNone {
		return Value{}, coilerr.New(coilerr.BadArgument, "cannot descend into a %v to set a nested path", v.Kind)
	}
	out := Object()
	if v.Kind == KindObject {
		for _, k := range v.keys {
			out.set(k, v.Object[k])
		}
	}
	head, rest := segs[0], segs[1:]
	if len(rest) == 0 {
		out.set(head, val)
		return out, nil
	}
	child, ok := out.Object[head]
	if !ok {
		child = Object()
	}
	updated, err := setRec(child, rest, val)
	if err != nil {
		return Value{}, err
	}
	out.set(head, updated)
	return out, nil
}

// AsInt64 is a convenience accessor matching the scenario in spec.md §8
// ("get('a.b.c') returns 42").
func (v Value) AsInt64() (int64, bool) {
	switch v.Kind {
	case KindInt:
		return v.Int, true
	case KindFloat:
		return int64(v.Float), true
	case KindString:
		i, err := strconv.ParseInt(v.String, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}
