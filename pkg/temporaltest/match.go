// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package temporaltest

import (
	"reflect"

	"github.com/slnw/laravel-temporal/pkg/invocation"
)

// Args matches a dispatch whose arguments decode to want, compared with
// reflect.DeepEqual after decoding into values of the same types.
func Args(want ...any) func(invocation.Dispatch) bool {
	return func(d invocation.Dispatch) bool {
		if d.Len() != len(want) {
			return false
		}
		ptrs := make([]any, len(want))
		for i, w := range want {
			if w == nil {
				var v any
				ptrs[i] = &v
				continue
			}
			ptrs[i] = reflect.New(reflect.TypeOf(w)).Interface()
		}
		if err := d.Get(ptrs...); err != nil {
			return false
		}
		for i, p := range ptrs {
			if !reflect.DeepEqual(reflect.ValueOf(p).Elem().Interface(), want[i]) {
				return false
			}
		}
		return true
	}
}
