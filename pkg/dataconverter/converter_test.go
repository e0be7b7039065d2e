// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package dataconverter

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/converter"
)

// Money controls its own payload shape and keeps its fields private.
type Money struct {
	amount   int64
	currency string
}

func (m Money) ToTemporalPayload() (any, error) {
	return map[string]any{"amount": m.amount, "currency": m.currency}, nil
}

func (m *Money) FromTemporalPayload(data any) error {
	fields, ok := data.(map[string]any)
	if !ok {
		return fmt.Errorf("money: unexpected %T", data)
	}
	amount, ok := fields["amount"].(json.Number)
	if !ok {
		return fmt.Errorf("money: amount is %T", fields["amount"])
	}
	n, err := amount.Int64()
	if err != nil {
		return err
	}
	m.amount = n
	m.currency, _ = fields["currency"].(string)
	return nil
}

// Coordinates is rebuilt through a registered factory rather than a method.
type Coordinates struct {
	Lat, Lng float64
}

func (c Coordinates) ToTemporalPayload() (any, error) {
	return []float64{c.Lat, c.Lng}, nil
}

type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
)

func (s Status) BackingValue() any { return string(s) }

type Priority int

const (
	PriorityLow  Priority = 1
	PriorityHigh Priority = 9
)

func (p Priority) BackingValue() any { return int(p) }

type Invoice struct {
	Number string  `json:"number"`
	Total  float64 `json:"total"`
}

func (i Invoice) ToJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"number": i.Number, "total": i.Total})
}

type Customer struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
}

func (c Customer) JSONSerialize() any {
	return map[string]any{"id": c.ID, "email": c.Email}
}

type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
}

func (a Address) ToMap() map[string]any {
	return map[string]any{"street": a.Street, "city": a.City}
}

type Shipment struct {
	ID        string    `json:"id"`
	Weight    float64   `json:"weight"`
	Tags      []string  `json:"tags"`
	ShippedAt time.Time `json:"shipped_at"`
}

// Hybrid implements both the custom hook and the array projection.
type Hybrid struct {
	Name string `json:"name"`
}

func (h Hybrid) ToTemporalPayload() (any, error) { return map[string]any{"custom": h.Name}, nil }
func (h Hybrid) ToMap() map[string]any           { return map[string]any{"array": h.Name} }

type BrokenJSON struct{}

func (BrokenJSON) ToJSON() ([]byte, error) { return []byte("{not json"), nil }

type Order struct {
	ID     string `json:"id"`
	Amount int    `json:"amount"`
}

type Tenant struct {
	Tenant string `json:"tenant"`
}

// Ledger mixes the shapes encoding/json handles specially.
type Ledger struct {
	Tenant
	Name    string `json:"name"`
	Balance int64  `json:"balance"`
	Secret  string `json:"-"`
}

type Strict struct {
	Name string `json:"name"`
}

type Panicky struct {
	Name string `json:"name"`
}

func roundTrip[T any](t *testing.T, pc *PayloadConverter, in T) T {
	t.Helper()
	p, err := pc.ToPayload(in)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, converter.MetadataEncodingJSON, string(p.Metadata[converter.MetadataEncoding]))

	var out T
	require.NoError(t, pc.FromPayload(p, &out))
	return out
}

func newTestConverter() *PayloadConverter {
	reg := NewRegistry()
	RegisterSerializable(reg, func(data any) (Coordinates, error) {
		pair, ok := data.([]any)
		if !ok || len(pair) != 2 {
			return Coordinates{}, errors.New("coordinates: want [lat, lng]")
		}
		lat, err := pair[0].(json.Number).Float64()
		if err != nil {
			return Coordinates{}, err
		}
		lng, err := pair[1].(json.Number).Float64()
		if err != nil {
			return Coordinates{}, err
		}
		return Coordinates{Lat: lat, Lng: lng}, nil
	})
	RegisterEnum(reg, StatusPending, StatusPaid)
	RegisterEnum(reg, PriorityLow, PriorityHigh)
	RegisterData(reg, func(map[string]any) (Strict, error) {
		return Strict{}, errors.New("strict: always rejects")
	})
	RegisterData(reg, func(map[string]any) (Panicky, error) {
		panic("factory exploded")
	})
	return NewPayloadConverter(reg)
}

func TestPayloadConverter_RoundTrip(t *testing.T) {
	pc := newTestConverter()

	t.Run("custom_hook_method", func(t *testing.T) {
		in := Money{amount: 1250, currency: "EUR"}
		assert.Equal(t, in, roundTrip(t, pc, in))
	})

	t.Run("custom_hook_registered", func(t *testing.T) {
		in := Coordinates{Lat: 45.5, Lng: -73.25}
		assert.Equal(t, in, roundTrip(t, pc, in))
	})

	t.Run("string_enum", func(t *testing.T) {
		assert.Equal(t, StatusPaid, roundTrip(t, pc, StatusPaid))
	})

	t.Run("int_enum", func(t *testing.T) {
		assert.Equal(t, PriorityHigh, roundTrip(t, pc, PriorityHigh))
	})

	t.Run("jsonable", func(t *testing.T) {
		in := Invoice{Number: "INV-7", Total: 99.5}
		assert.Equal(t, in, roundTrip(t, pc, in))
	})

	t.Run("json_serializable", func(t *testing.T) {
		in := Customer{ID: 42, Email: "jane@example.com"}
		assert.Equal(t, in, roundTrip(t, pc, in))
	})

	t.Run("arrayable", func(t *testing.T) {
		in := Address{Street: "1 Main St", City: "Springfield"}
		assert.Equal(t, in, roundTrip(t, pc, in))
	})

	t.Run("generic_struct", func(t *testing.T) {
		in := Shipment{
			ID:        "shp-1",
			Weight:    12.75,
			Tags:      []string{"fragile", "express"},
			ShippedAt: time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC),
		}
		out := roundTrip(t, pc, in)
		assert.Equal(t, in.ID, out.ID)
		assert.Equal(t, in.Weight, out.Weight)
		assert.Equal(t, in.Tags, out.Tags)
		assert.True(t, in.ShippedAt.Equal(out.ShippedAt))
	})

	t.Run("scalars", func(t *testing.T) {
		assert.Equal(t, 7, roundTrip(t, pc, 7))
		assert.Equal(t, "hello", roundTrip(t, pc, "hello"))
		assert.Equal(t, []string{"a", "b"}, roundTrip(t, pc, []string{"a", "b"}))
		assert.Equal(t, map[string]int{"x": 1}, roundTrip(t, pc, map[string]int{"x": 1}))
	})
}

func TestPayloadConverter_GenericStructMatchesJSON(t *testing.T) {
	pc := newTestConverter()
	baseline := converter.NewJSONPayloadConverter()

	t.Run("embedded_and_large_integers", func(t *testing.T) {
		in := Ledger{Tenant: Tenant{Tenant: "acme"}, Name: "main", Balance: 9007199254740993}
		assert.Equal(t, in, roundTrip(t, pc, in))
	})

	t.Run("skipped_field_ignores_dash_key", func(t *testing.T) {
		p := newJSONPayload([]byte(`{"name":"n","-":"leak","tenant":"t"}`))

		var got, want Ledger
		require.NoError(t, pc.FromPayload(p, &got))
		require.NoError(t, baseline.FromPayload(p, &want))
		assert.Equal(t, want, got)
		assert.Empty(t, got.Secret)
	})

	t.Run("large_integers_reach_factories", func(t *testing.T) {
		in := Money{amount: 9007199254740993, currency: "JPY"}
		assert.Equal(t, in, roundTrip(t, pc, in))
	})
}

func TestPayloadConverter_NilPointers(t *testing.T) {
	pc := newTestConverter()

	tests := []struct {
		name  string
		value any
	}{
		{name: "arrayable", value: (*Address)(nil)},
		{name: "json_serializable", value: (*Customer)(nil)},
		{name: "jsonable", value: (*Invoice)(nil)},
		{name: "enum", value: (*Status)(nil)},
		{name: "serializable", value: (*Money)(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := pc.ToPayload(tt.value)
			require.NoError(t, err)
			assert.Equal(t, "null", string(p.Data))
		})
	}
}

func TestPayloadConverter_EncodePrecedence(t *testing.T) {
	pc := newTestConverter()

	p, err := pc.ToPayload(Hybrid{Name: "h"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"custom":"h"}`, string(p.Data))

	p, err = pc.ToPayload(StatusPending)
	require.NoError(t, err)
	assert.Equal(t, `"pending"`, string(p.Data))

	p, err = pc.ToPayload(Address{Street: "s", City: "c"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"street":"s","city":"c"}`, string(p.Data))
}

func TestPayloadConverter_EncodeErrors(t *testing.T) {
	pc := newTestConverter()

	_, err := pc.ToPayload(BrokenJSON{})
	require.Error(t, err)
	assert.ErrorIs(t, err, converter.ErrUnableToEncode)
}

func TestPayloadConverter_PointerTargets(t *testing.T) {
	pc := newTestConverter()

	p, err := pc.ToPayload(Order{ID: "o-1", Amount: 3})
	require.NoError(t, err)

	var ptr *Order
	require.NoError(t, pc.FromPayload(p, &ptr))
	require.NotNil(t, ptr)
	assert.Equal(t, Order{ID: "o-1", Amount: 3}, *ptr)

	p, err = pc.ToPayload(&Money{amount: 5, currency: "USD"})
	require.NoError(t, err)

	var money *Money
	require.NoError(t, pc.FromPayload(p, &money))
	assert.Equal(t, &Money{amount: 5, currency: "USD"}, money)
}

func TestPayloadConverter_RegisteredFactories(t *testing.T) {
	reg := NewRegistry()
	var dataCalls, ctorCalls int
	RegisterData(reg, func(fields map[string]any) (*Order, error) {
		dataCalls++
		amount, err := fields["amount"].(json.Number).Int64()
		if err != nil {
			return nil, err
		}
		return &Order{ID: fields["id"].(string), Amount: int(amount)}, nil
	})
	RegisterConstructor(reg, func(data any) (Customer, error) {
		ctorCalls++
		fields := data.(map[string]any)
		id, err := fields["id"].(json.Number).Int64()
		if err != nil {
			return Customer{}, err
		}
		return Customer{ID: int(id), Email: fields["email"].(string)}, nil
	})
	pc := NewPayloadConverter(reg)

	assert.Equal(t, Order{ID: "o-9", Amount: 12}, roundTrip(t, pc, Order{ID: "o-9", Amount: 12}))
	assert.Equal(t, 1, dataCalls)

	assert.Equal(t, Customer{ID: 1, Email: "a@b.c"}, roundTrip(t, pc, Customer{ID: 1, Email: "a@b.c"}))
	assert.Equal(t, 1, ctorCalls)
}

func TestPayloadConverter_MalformedJSONForStructuredTarget(t *testing.T) {
	pc := newTestConverter()
	p := newJSONPayload([]byte(`{"id": `))

	var out Order
	err := pc.FromPayload(p, &out)
	require.Error(t, err)

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Contains(t, decodeErr.Type, "Order")
	assert.ErrorIs(t, err, converter.ErrUnableToDecode)

	var syntaxErr *json.SyntaxError
	assert.ErrorAs(t, err, &syntaxErr)
}

func TestPayloadConverter_FallbackOnFailedReconstruction(t *testing.T) {
	pc := newTestConverter()

	t.Run("factory_error", func(t *testing.T) {
		var out Strict
		require.NoError(t, pc.FromPayload(newJSONPayload([]byte(`{"name":"kept"}`)), &out))
		assert.Equal(t, Strict{Name: "kept"}, out)
	})

	t.Run("factory_panic", func(t *testing.T) {
		var out Panicky
		require.NoError(t, pc.FromPayload(newJSONPayload([]byte(`{"name":"survived"}`)), &out))
		assert.Equal(t, Panicky{Name: "survived"}, out)
	})

	t.Run("unknown_enum_case", func(t *testing.T) {
		var out Status
		require.NoError(t, pc.FromPayload(newJSONPayload([]byte(`"refunded"`)), &out))
		assert.Equal(t, Status("refunded"), out)
	})

	t.Run("data_factory_given_non_object", func(t *testing.T) {
		var out Strict
		err := pc.FromPayload(newJSONPayload([]byte(`"scalar"`)), &out)
		// The JSON converter cannot put a string into a struct either.
		assert.ErrorIs(t, err, converter.ErrUnableToDecode)
	})
}

func TestPayloadConverter_ScalarTargetsSkipRegistry(t *testing.T) {
	pc := newTestConverter()

	var generic any
	require.NoError(t, pc.FromPayload(newJSONPayload([]byte(`{"a":[1,2]}`)), &generic))
	require.IsType(t, map[string]any{}, generic)
	assert.Contains(t, generic, "a")

	var n int
	err := pc.FromPayload(newJSONPayload([]byte(`not-json`)), &n)
	require.Error(t, err)
	var decodeErr *DecodeError
	assert.False(t, errors.As(err, &decodeErr), "scalar targets report the JSON converter's error")
}

func TestNewDataConverter(t *testing.T) {
	reg := NewRegistry()
	RegisterEnum(reg, StatusPending, StatusPaid)
	dc := NewDataConverter(reg)

	payloads, err := dc.ToPayloads(StatusPaid, Money{amount: 10, currency: "GBP"}, []byte("raw"), nil)
	require.NoError(t, err)
	require.Len(t, payloads.Payloads, 4)
	assert.Equal(t, "binary/plain", string(payloads.Payloads[2].Metadata[converter.MetadataEncoding]))
	assert.Equal(t, "binary/null", string(payloads.Payloads[3].Metadata[converter.MetadataEncoding]))

	var (
		status Status
		money  Money
		raw    []byte
		empty  *Order
	)
	require.NoError(t, dc.FromPayloads(payloads, &status, &money, &raw, &empty))
	assert.Equal(t, StatusPaid, status)
	assert.Equal(t, Money{amount: 10, currency: "GBP"}, money)
	assert.Equal(t, []byte("raw"), raw)
	assert.Nil(t, empty)

	assert.Equal(t, `"paid"`, dc.ToString(payloads.Payloads[0]))
}

func TestDecodeError(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := &DecodeError{Type: "billing.Order", Err: cause}

	assert.Equal(t, "unable to decode payload into billing.Order: unexpected end of JSON input", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, converter.ErrUnableToDecode)
	assert.NotErrorIs(t, err, converter.ErrUnableToEncode)
}

func TestAssign(t *testing.T) {
	var order Order
	require.NoError(t, assign(&order, &Order{ID: "deref"}))
	assert.Equal(t, "deref", order.ID)

	var ptr *Order
	require.NoError(t, assign(&ptr, Order{ID: "alloc"}))
	assert.Equal(t, "alloc", ptr.ID)

	assert.Error(t, assign(&order, "wrong"))
	assert.Error(t, assign(&order, nil))
}
