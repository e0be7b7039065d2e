// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package invocation

const (
	dispatchKeyPrefix = "workflow_dispatch::"
	workflowKeyPrefix = "workflow::"
	activityKeyPrefix = "activity::"
)

func dispatchKey(workflow string) string { return dispatchKeyPrefix + workflow }

func workflowKey(workflow string) string { return workflowKeyPrefix + workflow }

func activityKey(activity string) string { return activityKeyPrefix + activity }
