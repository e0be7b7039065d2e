// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package dataconverter

import (
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"sync"
)

// Registry maps a Go type to the strategies used to rebuild it from a decoded
// payload. It is populated at startup and read concurrently afterwards.
//
// Pointer types are keyed by their element type, so registering *Order and
// Order is the same entry.
type Registry struct {
	mu    sync.RWMutex
	types map[reflect.Type]*strategy
}

// strategy holds the reconstruction functions for one type. FromPayload tries
// them in field order. Every function receives the payload decoded into
// generic values with numbers as json.Number.
type strategy struct {
	custom    func(data any) (any, error)
	enum      func(data any) (any, error)
	data      func(data map[string]any) (any, error)
	construct func(data any) (any, error)
}

// Default is the registry populated by application init functions and used by
// the worker binaries.
var Default = NewRegistry()

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[reflect.Type]*strategy)}
}

// Registered reports whether any strategy is registered for t.
func (r *Registry) Registered(t reflect.Type) bool {
	return r.lookup(t) != nil
}

func (r *Registry) lookup(t reflect.Type) *strategy {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.types[baseType(t)]
	if !ok {
		return nil
	}
	cp := *s
	return &cp
}

func (r *Registry) update(t reflect.Type, fn func(*strategy)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := baseType(t)
	s, ok := r.types[key]
	if !ok {
		s = &strategy{}
		r.types[key] = s
	}
	fn(s)
}

// RegisterSerializable registers the decode factory of a TemporalSerializable type.
func RegisterSerializable[T TemporalSerializable](r *Registry, from func(data any) (T, error)) {
	r.update(reflect.TypeFor[T](), func(s *strategy) {
		s.custom = func(data any) (any, error) { return from(data) }
	})
}

// RegisterEnum registers the cases of a backed enumeration. Decoding picks the
// case whose backing value equals the payload scalar and fails otherwise.
func RegisterEnum[T BackedEnum](r *Registry, cases ...T) {
	type enumCase struct {
		value   T
		backing any
	}
	normalized := make([]enumCase, 0, len(cases))
	for _, c := range cases {
		normalized = append(normalized, enumCase{value: c, backing: normalizeScalar(c.BackingValue())})
	}
	name := reflect.TypeFor[T]().String()

	r.update(reflect.TypeFor[T](), func(s *strategy) {
		s.enum = func(data any) (any, error) {
			for _, c := range normalized {
				if scalarEqual(c.backing, data) {
					return c.value, nil
				}
			}
			return nil, fmt.Errorf("%v is not a valid backing value for enum %s", data, name)
		}
	})
}

// RegisterData registers a factory for a structured data object built from the
// decoded JSON object.
func RegisterData[T any](r *Registry, from func(data map[string]any) (T, error)) {
	r.update(reflect.TypeFor[T](), func(s *strategy) {
		s.data = func(data map[string]any) (any, error) { return from(data) }
	})
}

// RegisterConstructor registers the constructor used for generic construction.
// Unregistered struct types are built by field mapping instead.
func RegisterConstructor[T any](r *Registry, newFn func(data any) (T, error)) {
	r.update(reflect.TypeFor[T](), func(s *strategy) {
		s.construct = func(data any) (any, error) { return newFn(data) }
	})
}

// normalizeScalar passes v through the payload decoder so it compares equal
// to the same scalar read from a payload (numbers become json.Number).
func normalizeScalar(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	out, err := decodeJSON(b)
	if err != nil {
		return v
	}
	return out
}

// scalarEqual compares decoded scalars; numbers compare by value so 9 and 9.0
// are the same backing value.
func scalarEqual(a, b any) bool {
	na, okA := a.(json.Number)
	nb, okB := b.(json.Number)
	if !okA || !okB {
		return reflect.DeepEqual(a, b)
	}
	ra, okA := new(big.Rat).SetString(na.String())
	rb, okB := new(big.Rat).SetString(nb.String())
	if !okA || !okB {
		return na == nb
	}
	return ra.Cmp(rb) == 0
}

func baseType(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
