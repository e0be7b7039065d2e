// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package invocation

// InvokeActivity is the request name of an activity invocation.
const InvokeActivity = "InvokeActivity"

// Request is a command received by the worker. Activity invocations carry the
// activity name under the "name" option.
type Request interface {
	Name() string
	Options() map[string]any
}

type request struct {
	name    string
	options map[string]any
}

func (r request) Name() string            { return r.name }
func (r request) Options() map[string]any { return r.options }

// NewRequest returns a Request with the given name and options.
func NewRequest(name string, options map[string]any) Request {
	return request{name: name, options: options}
}

// ActivityRequest returns the InvokeActivity request for the named activity.
func ActivityRequest(activity string) Request {
	return request{name: InvokeActivity, options: map[string]any{"name": activity}}
}

func activityName(req Request) (string, bool) {
	if req == nil || req.Name() != InvokeActivity {
		return "", false
	}
	name, ok := req.Options()["name"].(string)
	return name, ok && name != ""
}
