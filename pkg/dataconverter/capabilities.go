// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dataconverter provides a Temporal payload converter that encodes domain
// values through the serialization hook they expose and rebuilds typed values
// from JSON payloads using a registry of reconstruction strategies.
//
// Encoding checks capabilities in a fixed order, most specific first:
//
//	TemporalSerializable > BackedEnum > Jsonable > JSONSerializable > Arrayable > plain JSON
//
// A type can therefore opt out of a lossy generic projection by implementing
// TemporalSerializable. Every branch produces a json/plain payload, so histories
// written by the stock JSON converter stay readable.
package dataconverter

// TemporalSerializable values control their own payload projection.
type TemporalSerializable interface {
	ToTemporalPayload() (any, error)
}

// TemporalDeserializable is the decode counterpart of TemporalSerializable and is
// checked on the pointer to the target type. data is the JSON-decoded payload,
// with numbers as json.Number.
type TemporalDeserializable interface {
	FromTemporalPayload(data any) error
}

// BackedEnum values are encoded as their scalar backing value.
type BackedEnum interface {
	BackingValue() any
}

// Jsonable values render themselves to JSON.
type Jsonable interface {
	ToJSON() ([]byte, error)
}

// JSONSerializable values expose a projection that is JSON-encoded.
type JSONSerializable interface {
	JSONSerialize() any
}

// Arrayable values expose a map projection that is JSON-encoded.
type Arrayable interface {
	ToMap() map[string]any
}
