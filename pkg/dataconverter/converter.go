// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package dataconverter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	commonpb "go.temporal.io/api/common/v1"
	"go.temporal.io/sdk/converter"

	"github.com/slnw/laravel-temporal/internal/logger"
)

var deserializableType = reflect.TypeFor[TemporalDeserializable]()

// PayloadConverter layers capability-based encoding and registry-driven decoding
// on top of Temporal's JSON payload converter. It shares the json/plain encoding,
// so it replaces the stock JSON converter inside a composite data converter.
type PayloadConverter struct {
	*converter.JSONPayloadConverter
	registry *Registry
}

var _ converter.PayloadConverter = (*PayloadConverter)(nil)

// NewPayloadConverter returns a payload converter backed by reg. A nil registry
// behaves as an empty one.
func NewPayloadConverter(reg *Registry) *PayloadConverter {
	if reg == nil {
		reg = NewRegistry()
	}
	return &PayloadConverter{
		JSONPayloadConverter: converter.NewJSONPayloadConverter(),
		registry:             reg,
	}
}

// NewDataConverter returns the SDK's default converter chain with the JSON
// converter replaced by a PayloadConverter.
func NewDataConverter(reg *Registry) converter.DataConverter {
	return converter.NewCompositeDataConverter(
		converter.NewNilPayloadConverter(),
		converter.NewByteSlicePayloadConverter(),
		converter.NewProtoJSONPayloadConverter(),
		converter.NewProtoPayloadConverter(),
		NewPayloadConverter(reg),
	)
}

// ToPayload encodes value through the first serialization capability it
// implements and falls back to plain JSON. Nil pointers encode as JSON null.
func (c *PayloadConverter) ToPayload(value any) (*commonpb.Payload, error) {
	if rv := reflect.ValueOf(value); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return c.JSONPayloadConverter.ToPayload(value)
	}

	var (
		data []byte
		err  error
	)

	switch v := value.(type) {
	case TemporalSerializable:
		var projection any
		if projection, err = v.ToTemporalPayload(); err == nil {
			data, err = json.Marshal(projection)
		}
	case BackedEnum:
		data, err = json.Marshal(v.BackingValue())
	case Jsonable:
		data, err = v.ToJSON()
		if err == nil && !json.Valid(data) {
			err = fmt.Errorf("%T.ToJSON returned invalid JSON", value)
		}
	case JSONSerializable:
		data, err = json.Marshal(v.JSONSerialize())
	case Arrayable:
		data, err = json.Marshal(v.ToMap())
	default:
		return c.JSONPayloadConverter.ToPayload(value)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %v", converter.ErrUnableToEncode, err)
	}
	return newJSONPayload(data), nil
}

// FromPayload decodes payload into valuePtr. Scalar targets go straight to the
// JSON converter. Structured targets are rebuilt through the registry; when
// reconstruction fails the JSON converter decodes instead and the failure is
// only logged.
func (c *PayloadConverter) FromPayload(payload *commonpb.Payload, valuePtr any) error {
	target, ok := targetType(valuePtr)
	if !ok || !c.structured(target) {
		return c.JSONPayloadConverter.FromPayload(payload, valuePtr)
	}

	data, err := decodeJSON(payload.GetData())
	if err != nil {
		return &DecodeError{Type: target.String(), Err: err}
	}

	value, err := c.reconstruct(target, payload.GetData(), data)
	if err == nil {
		err = assign(valuePtr, value)
	}
	if err != nil {
		log := logger.GetDataConverterLogger()
		log.Debug().Err(err).Str("type", target.String()).Msg("Reconstruction failed, decoding with JSON converter")
		return c.JSONPayloadConverter.FromPayload(payload, valuePtr)
	}
	return nil
}

func (c *PayloadConverter) structured(t reflect.Type) bool {
	return c.registry.Registered(t) ||
		reflect.PointerTo(t).Implements(deserializableType) ||
		t.Kind() == reflect.Struct
}

// reconstruct builds a value of t. Factories receive data, the payload decoded
// with numbers kept as json.Number; generic construction decodes raw directly.
func (c *PayloadConverter) reconstruct(t reflect.Type, raw []byte, data any) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reconstruct %s: panic: %v", t, r)
		}
	}()

	s := c.registry.lookup(t)
	if s == nil {
		s = &strategy{}
	}

	switch {
	case s.custom != nil:
		return s.custom(data)
	case reflect.PointerTo(t).Implements(deserializableType):
		ptr := reflect.New(t)
		if err := ptr.Interface().(TemporalDeserializable).FromTemporalPayload(data); err != nil {
			return nil, err
		}
		return ptr.Elem().Interface(), nil
	case s.enum != nil:
		return s.enum(data)
	case s.data != nil:
		fields, ok := data.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s expects a JSON object, got %T", t, data)
		}
		return s.data(fields)
	case s.construct != nil:
		return s.construct(data)
	default:
		return construct(t, raw)
	}
}

// construct decodes raw into a new value of t with encoding/json, so embedded
// structs, "-" tags, custom unmarshalers and 64-bit integers behave exactly as
// they do for the JSON converter.
func construct(t reflect.Type, raw []byte) (any, error) {
	ptr := reflect.New(t)
	if err := json.Unmarshal(raw, ptr.Interface()); err != nil {
		return nil, err
	}
	return ptr.Elem().Interface(), nil
}

// decodeJSON parses a payload into generic values, keeping numbers as
// json.Number so integers beyond 2^53 survive.
func decodeJSON(raw []byte) (any, error) {
	// Unmarshal first for its syntax errors and trailing-data check.
	if err := json.Unmarshal(raw, new(json.RawMessage)); err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var data any
	if err := dec.Decode(&data); err != nil {
		return nil, err
	}
	return data, nil
}

// assign stores value into *valuePtr, allocating or dereferencing one pointer
// level when the factory result and the target differ by indirection.
func assign(valuePtr any, value any) error {
	dst := reflect.ValueOf(valuePtr).Elem()
	v := reflect.ValueOf(value)
	if !v.IsValid() {
		return errors.New("factory returned nil")
	}

	switch {
	case v.Type().AssignableTo(dst.Type()):
		dst.Set(v)
	case dst.Kind() == reflect.Pointer && v.Type().AssignableTo(dst.Type().Elem()):
		p := reflect.New(dst.Type().Elem())
		p.Elem().Set(v)
		dst.Set(p)
	case v.Kind() == reflect.Pointer && !v.IsNil() && v.Elem().Type().AssignableTo(dst.Type()):
		dst.Set(v.Elem())
	default:
		return fmt.Errorf("%w: cannot assign %s to %s", converter.ErrUnableToSetValue, v.Type(), dst.Type())
	}
	return nil
}

func targetType(valuePtr any) (reflect.Type, bool) {
	rv := reflect.ValueOf(valuePtr)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nil, false
	}
	return baseType(rv.Type().Elem()), true
}

func newJSONPayload(data []byte) *commonpb.Payload {
	return &commonpb.Payload{
		Metadata: map[string][]byte{
			converter.MetadataEncoding: []byte(converter.MetadataEncodingJSON),
		},
		Data: data,
	}
}
