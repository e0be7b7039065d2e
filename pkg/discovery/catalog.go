// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package discovery collects the workflows and activities a worker registers.
//
// Packages add themselves from init functions. RegisterWorkflow and
// RegisterActivity add entries that every worker registers. ProvideWorkflow
// and ProvideActivity add entries that a worker registers only when its
// configuration lists them by name.
package discovery

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"sync"

	"github.com/samber/lo"
)

// Entry is a named workflow function, activity function or activity struct.
type Entry struct {
	Name string
	Fn   any
}

// IsStruct reports whether the entry is an activity struct whose methods are
// registered individually.
func (e Entry) IsStruct() bool {
	t := reflect.TypeOf(e.Fn)
	return t != nil && t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct
}

// Catalog is an ordered, name-unique set of workflows and activities.
type Catalog struct {
	mu         sync.RWMutex
	workflows  []Entry
	activities []Entry
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{}
}

// RegisterWorkflow adds a workflow function under its function name.
func (c *Catalog) RegisterWorkflow(fn any) error {
	name, err := Name(fn)
	if err != nil {
		return err
	}
	return c.RegisterWorkflowWithName(name, fn)
}

// RegisterWorkflowWithName adds a workflow function under name.
func (c *Catalog) RegisterWorkflowWithName(name string, fn any) error {
	if name == "" {
		return errors.New("discovery: empty workflow name")
	}
	if reflect.TypeOf(fn) == nil || reflect.TypeOf(fn).Kind() != reflect.Func {
		return fmt.Errorf("discovery: workflow %s must be a function, got %T", name, fn)
	}
	return c.add(&c.workflows, "workflow", Entry{Name: name, Fn: fn})
}

// RegisterActivity adds an activity function or a pointer to an activity
// struct. Structs are named after their type.
func (c *Catalog) RegisterActivity(a any) error {
	name, err := Name(a)
	if err != nil {
		return err
	}
	return c.add(&c.activities, "activity", Entry{Name: name, Fn: a})
}

func (c *Catalog) add(list *[]Entry, kind string, e Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := lo.Find(*list, func(x Entry) bool { return x.Name == e.Name }); exists {
		return fmt.Errorf("discovery: %s %s already registered", kind, e.Name)
	}
	*list = append(*list, e)
	return nil
}

// Workflows returns the workflows in registration order.
func (c *Catalog) Workflows() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Entry(nil), c.workflows...)
}

// Activities returns the activities in registration order.
func (c *Catalog) Activities() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Entry(nil), c.activities...)
}

// WorkflowNames returns the names of the workflows.
func (c *Catalog) WorkflowNames() []string {
	return lo.Map(c.Workflows(), func(e Entry, _ int) string { return e.Name })
}

// ActivityNames returns the names of the activities.
func (c *Catalog) ActivityNames() []string {
	return lo.Map(c.Activities(), func(e Entry, _ int) string { return e.Name })
}

// Merge returns base plus the entries of optional named in workflows and
// activities. Duplicates are dropped by name; unknown names are an error.
func Merge(base, optional *Catalog, workflows, activities []string) (*Catalog, error) {
	pick := func(kind string, entries []Entry, names []string) ([]Entry, error) {
		byName := lo.KeyBy(entries, func(e Entry) string { return e.Name })
		var (
			picked  []Entry
			missing []string
		)
		for _, name := range names {
			e, ok := byName[name]
			if !ok {
				missing = append(missing, name)
				continue
			}
			picked = append(picked, e)
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf("discovery: unknown %s %s", kind, strings.Join(missing, ", "))
		}
		return picked, nil
	}

	extraWorkflows, err := pick("workflows", optional.Workflows(), workflows)
	if err != nil {
		return nil, err
	}
	extraActivities, err := pick("activities", optional.Activities(), activities)
	if err != nil {
		return nil, err
	}

	byName := func(e Entry) string { return e.Name }
	return &Catalog{
		workflows:  lo.UniqBy(append(base.Workflows(), extraWorkflows...), byName),
		activities: lo.UniqBy(append(base.Activities(), extraActivities...), byName),
	}, nil
}

// Name returns the registration name of fn: the function name without its
// package path and method-value suffix, or the type name of a struct pointer.
func Name(fn any) (string, error) {
	v := reflect.ValueOf(fn)
	switch {
	case v.Kind() == reflect.Func && !v.IsNil():
		full := runtime.FuncForPC(v.Pointer()).Name()
		return strings.TrimSuffix(full[strings.LastIndex(full, ".")+1:], "-fm"), nil
	case v.Kind() == reflect.Pointer && !v.IsNil() && v.Elem().Kind() == reflect.Struct:
		return v.Elem().Type().Name(), nil
	default:
		return "", fmt.Errorf("discovery: cannot name %T", fn)
	}
}
