// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package invocation

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Store.Get for a missing key.
var ErrNotFound = errors.New("invocation: key not found")

// Store is the key-value backend of a Cache. Values set with Set and lists
// built with Append live in the same key space; callers keep them apart by key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Has(ctx context.Context, key string) (bool, error)
	// Append adds value to the end of the list at key. It must be atomic with
	// respect to concurrent appends from other processes.
	Append(ctx context.Context, key string, value []byte) error
	// List returns the list at key in append order, or an empty slice.
	List(ctx context.Context, key string) ([][]byte, error)
	// Clear removes every key owned by the store.
	Clear(ctx context.Context) error
	Close() error
}
