// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 JamHost Contributors

package main

import (
	"github.com/jamhost/jamhost/internal/plugin/lifecycle"
	"github.com/jamhost/jamhost/internal/plugin/probe"
	"github.com/jamhost/jamhost/internal/plugin/scan"
	"github.com/jamhost/jamhost/pkg/errutil"
)

// Process exit codes.
const (
	ExitOK                  = 0
	ExitFailure             = 1
	ExitDirectoryUnreadable = 2
	ExitNoControlPlugin     = 3
	ExitBindFailed          = 4
	ExitAttachFailed        = 5
)

// exitCode maps a command error to the process exit status. A detach
// failure never reaches here; it does not change the outcome of a run.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch errutil.Code(err) {
	case scan.CodeDirectoryUnreadable:
		return ExitDirectoryUnreadable
	case probe.CodeNoControlPlugin:
		return ExitNoControlPlugin
	case lifecycle.CodeSymbolResolution:
		return ExitBindFailed
	case lifecycle.CodeAttachFailed:
		return ExitAttachFailed
	default:
		return ExitFailure
	}
}
