// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package logger

import (
	"github.com/rs/zerolog"
)

// Logger names map directly to the log.levels keys in the config file.

// GetTemporalLogger returns a logger for Temporal client components
func GetTemporalLogger() zerolog.Logger {
	return GetLogger("temporal")
}

// GetDataConverterLogger returns a logger for payload conversion
func GetDataConverterLogger() zerolog.Logger {
	return GetLogger("dataconverter")
}

// GetInvocationLogger returns a logger for the invocation cache and fakes
func GetInvocationLogger() zerolog.Logger {
	return GetLogger("invocation")
}

// GetWorkerLogger returns a logger for worker lifecycle
func GetWorkerLogger() zerolog.Logger {
	return GetLogger("worker")
}
