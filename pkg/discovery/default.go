// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package discovery

var (
	// Default holds the entries every worker registers.
	Default = NewCatalog()
	// Optional holds the entries a worker registers when configured to.
	Optional = NewCatalog()
)

// RegisterWorkflow adds fn to Default. It panics on invalid input and is
// meant for init functions.
func RegisterWorkflow(fn any) {
	must(Default.RegisterWorkflow(fn))
}

// RegisterActivity adds a to Default.
func RegisterActivity(a any) {
	must(Default.RegisterActivity(a))
}

// ProvideWorkflow adds fn to Optional.
func ProvideWorkflow(fn any) {
	must(Optional.RegisterWorkflow(fn))
}

// ProvideActivity adds a to Optional.
func ProvideActivity(a any) {
	must(Optional.RegisterActivity(a))
}

// Resolve merges Default with the Optional entries named in configuration.
func Resolve(workflows, activities []string) (*Catalog, error) {
	return Merge(Default, Optional, workflows, activities)
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
