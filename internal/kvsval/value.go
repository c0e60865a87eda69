// Package kvsval defines the value representation of the key-value store:
// null, boolean, number, string, ordered array, and string-keyed object.
//
// Value is a sealed interface - only the six variants in this package
// implement it. Numbers are float64 throughout, matching the store's JSON
// persistence format; integral payloads recorded by the probe harness stay
// int64 on the harness side and only cross into kvsval at the store
// boundary.
package kvsval

import "slices"

// Value is a sealed interface over the store's value variants.
type Value interface {
	kvsValue() // sealed
}

// Null is the JSON null value.
type Null struct{}

func (Null) kvsValue() {}

// Bool is a boolean value.
type Bool bool

func (Bool) kvsValue() {}

// Number is a numeric value. Always float64, as in the JSON data model.
type Number float64

func (Number) kvsValue() {}

// String is a string value.
type String string

func (String) kvsValue() {}

// Array is an ordered sequence of values.
type Array []Value

func (Array) kvsValue() {}

// Object is a string-keyed mapping of values.
// Use SortedKeys for deterministic iteration.
type Object map[string]Value

func (Object) kvsValue() {}

// SortedKeys returns the object's keys in canonical order (UTF-16 code
// units, per RFC 8785). Plain byte order differs for strings outside the
// basic multilingual plane.
func (o Object) SortedKeys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysUTF16)
	return keys
}

// Equal reports deep equality of two values.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Number:
		bv, ok := b.(Number)
		return ok && av == bv
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Array:
		bv, ok := b.(Array)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Object:
		bv, ok := b.(Object)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bval, present := bv[k]
			if !present || !Equal(v, bval) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
