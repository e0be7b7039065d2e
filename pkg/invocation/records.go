// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package invocation

import (
	"encoding/json"
	"errors"
	"fmt"

	commonpb "go.temporal.io/api/common/v1"
	"go.temporal.io/sdk/converter"
	"go.temporal.io/sdk/temporal"
	"google.golang.org/protobuf/proto"
)

// ErrInvalidCacheValue reports a cached outcome that is neither a result nor
// a failure.
var ErrInvalidCacheValue = errors.New("invalid cache value")

type recordKind string

const (
	kindResult  recordKind = "result"
	kindFailure recordKind = "failure"
	kindHandler recordKind = "handler"
)

// record is the stored form of a mocked outcome. Payloads holds a
// proto-encoded commonpb.Payloads so the original encoding metadata survives.
type record struct {
	Kind     recordKind     `json:"kind"`
	Payloads []byte         `json:"payloads,omitempty"`
	Failure  *failureRecord `json:"failure,omitempty"`
	Token    string         `json:"token,omitempty"`
}

type failureRecord struct {
	Type         string `json:"type"`
	Message      string `json:"message"`
	NonRetryable bool   `json:"non_retryable"`
}

func resultRecord(dc converter.DataConverter, value any) (*record, error) {
	payloads, err := dc.ToPayloads(value)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	data, err := proto.Marshal(payloads)
	if err != nil {
		return nil, fmt.Errorf("marshal result payloads: %w", err)
	}
	return &record{Kind: kindResult, Payloads: data}, nil
}

// failureFrom keeps the application error type when err carries one and the
// Go type name otherwise.
func failureFrom(err error) *record {
	if err == nil {
		err = errors.New("unknown failure")
	}
	f := &failureRecord{Type: fmt.Sprintf("%T", err), Message: err.Error()}

	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		if appErr.Type() != "" {
			f.Type = appErr.Type()
		}
		f.NonRetryable = appErr.NonRetryable()
	}
	return &record{Kind: kindFailure, Failure: f}
}

func (r *record) err() error {
	return temporal.NewApplicationErrorWithOptions(r.Failure.Message, r.Failure.Type, temporal.ApplicationErrorOptions{
		NonRetryable: r.Failure.NonRetryable,
	})
}

func (r *record) payloads() (*commonpb.Payloads, error) {
	payloads := &commonpb.Payloads{}
	if err := proto.Unmarshal(r.Payloads, payloads); err != nil {
		return nil, fmt.Errorf("unmarshal result payloads: %w", err)
	}
	return payloads, nil
}

// outcome resolves a result or failure record. Any other record yields
// ErrInvalidCacheValue.
func (r *record) outcome() (*commonpb.Payloads, error) {
	switch {
	case r.Kind == kindFailure && r.Failure != nil:
		return nil, r.err()
	case r.Kind == kindResult:
		return r.payloads()
	default:
		return nil, ErrInvalidCacheValue
	}
}

func encodeRecord(r *record) ([]byte, error) {
	return json.Marshal(r)
}

func decodeRecord(data []byte) (*record, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCacheValue, err)
	}
	return &r, nil
}
