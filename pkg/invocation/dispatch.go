// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package invocation

import (
	commonpb "go.temporal.io/api/common/v1"
	"go.temporal.io/sdk/converter"
)

// Dispatch is the argument list of one faked workflow start.
type Dispatch struct {
	payloads *commonpb.Payloads
	dc       converter.DataConverter
}

var _ converter.EncodedValues = Dispatch{}

// Len returns the number of recorded arguments.
func (d Dispatch) Len() int {
	return len(d.payloads.GetPayloads())
}

func (d Dispatch) HasValues() bool {
	return d.Len() > 0
}

// Get decodes the arguments into valuePtrs, in order.
func (d Dispatch) Get(valuePtrs ...any) error {
	return d.dc.FromPayloads(d.payloads, valuePtrs...)
}

// Payloads returns the encoded arguments.
func (d Dispatch) Payloads() *commonpb.Payloads {
	return d.payloads
}
