// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package invocation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/samber/lo"
	"go.temporal.io/sdk/temporal"
	"gopkg.in/yaml.v3"
)

// Fixtures is a set of data-only mocks, usually loaded from YAML:
//
//	activities:
//	  SendEmail:
//	    result: {sent: true}
//	  ChargeCard:
//	    error: {type: CardDeclined, message: card declined, non_retryable: true}
//	workflows:
//	  ShipOrderWorkflow:
//	    result: shipped
type Fixtures struct {
	Activities map[string]Outcome `yaml:"activities"`
	Workflows  map[string]Outcome `yaml:"workflows"`
}

// Outcome is either a result or an error. An outcome without an error is a
// result, possibly null.
type Outcome struct {
	Result any      `yaml:"result"`
	Error  *Failure `yaml:"error"`
}

// Failure describes a mocked error.
type Failure struct {
	Type         string `yaml:"type"`
	Message      string `yaml:"message"`
	NonRetryable bool   `yaml:"non_retryable"`
}

func (f *Failure) err() error {
	return temporal.NewApplicationErrorWithOptions(f.Message, f.Type, temporal.ApplicationErrorOptions{
		NonRetryable: f.NonRetryable,
	})
}

// LoadFixtures reads fixtures from a YAML file.
func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	f, err := ParseFixtures(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// ParseFixtures decodes YAML fixtures.
func ParseFixtures(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Fixtures) validate() error {
	var errs []error
	check := func(kind string, outcomes map[string]Outcome) {
		for name, o := range outcomes {
			if name == "" {
				errs = append(errs, fmt.Errorf("%s: empty name", kind))
			}
			if o.Error != nil && o.Result != nil {
				errs = append(errs, fmt.Errorf("%s %s: result and error are exclusive", kind, name))
			}
			if o.Error != nil && o.Error.Message == "" {
				errs = append(errs, fmt.Errorf("%s %s: error message is required", kind, name))
			}
		}
	}
	check("activity", f.Activities)
	check("workflow", f.Workflows)
	return errors.Join(errs...)
}

// Apply seeds cache with the fixtures in name order.
func (f *Fixtures) Apply(ctx context.Context, cache *Cache) error {
	for _, name := range sortedKeys(f.Activities) {
		o := f.Activities[name]
		var err error
		if o.Error != nil {
			err = cache.SaveFailure(ctx, name, o.Error.err())
		} else {
			err = cache.SaveCompletion(ctx, name, o.Result)
		}
		if err != nil {
			return fmt.Errorf("seed activity %s: %w", name, err)
		}
	}
	for _, name := range sortedKeys(f.Workflows) {
		o := f.Workflows[name]
		var err error
		if o.Error != nil {
			err = cache.SaveWorkflowFailure(ctx, name, o.Error.err())
		} else {
			err = cache.SaveWorkflowResult(ctx, name, o.Result)
		}
		if err != nil {
			return fmt.Errorf("seed workflow %s: %w", name, err)
		}
	}
	return nil
}

func sortedKeys(m map[string]Outcome) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
