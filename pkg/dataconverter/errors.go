// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package dataconverter

import (
	"fmt"

	"go.temporal.io/sdk/converter"
)

// DecodeError reports a payload that is not valid JSON for a structured target.
// It matches converter.ErrUnableToDecode and unwraps to the parser error.
type DecodeError struct {
	Type string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unable to decode payload into %s: %v", e.Type, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == converter.ErrUnableToDecode
}
