// Package ednl implements an append-friendly, one-record-per-line record
// file format: a small edn-like subset (maps, vectors, keywords, strings,
// ints, bools, nil) with one self-describing record per line. It is the
// on-disk format for tasks.ednl,
// complete.ednl, and the .mcp-tasks.edn config file.
package ednl

import "fmt"

// Keyword is an edn keyword token (":open", ":blocked-by", ...), stored
// without its leading colon.
type Keyword string

// Pair is one key/value entry of a Map, kept in insertion order so that
// round-tripping a record preserves field order exactly.
type Pair struct {
	Key   string
	Value Value
}

// Map is an ordered sequence of key/value pairs — the record form used for
// tasks, relations, and the config file.
type Map struct {
	Pairs []Pair
}

// Get returns the value for key and whether it was present.
func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return nil, false
	}
	for _, p := range m.Pairs {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

// Set overwrites or appends key with value, preserving existing position.
func (m *Map) Set(key string, value Value) {
	for i, p := range m.Pairs {
		if p.Key == key {
			m.Pairs[i].Value = value
			return
		}
	}
	m.Pairs = append(m.Pairs, Pair{Key: key, Value: value})
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	keys := make([]string, len(m.Pairs))
	for i, p := range m.Pairs {
		keys[i] = p.Key
	}
	return keys
}

// Value is any of: nil, bool, int64, string, Keyword, []Value, *Map.
type Value interface{}

// AsString extracts a string value, returning an error for any other shape.
func AsString(v Value) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %T", v)
	}
	return s, nil
}

// AsKeyword extracts a keyword value.
func AsKeyword(v Value) (Keyword, error) {
	k, ok := v.(Keyword)
	if !ok {
		return "", fmt.Errorf("expected keyword, got %T", v)
	}
	return k, nil
}

// AsInt extracts an int64 value.
func AsInt(v Value) (int64, error) {
	i, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("expected int, got %T", v)
	}
	return i, nil
}

// AsVector extracts a []Value value.
func AsVector(v Value) ([]Value, error) {
	vec, ok := v.([]Value)
	if !ok {
		return nil, fmt.Errorf("expected vector, got %T", v)
	}
	return vec, nil
}

// AsMap extracts a *Map value.
func AsMap(v Value) (*Map, error) {
	m, ok := v.(*Map)
	if !ok {
		return nil, fmt.Errorf("expected map, got %T", v)
	}
	return m, nil
}
