// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 JamHost Contributors

package main

import (
	"os"
	"time"

	"github.com/jamhost/jamhost/internal/plugin/native"
	"github.com/jamhost/jamhost/internal/xdg"
)

// Deps contains injectable dependencies for the host commands.
// All fields with nil values will use their default implementations.
type Deps struct {
	// Executable returns the path of the running host binary.
	// Default: os.Executable
	Executable func() (string, error)

	// Runtime opens and binds native libraries.
	// Default: native.Dynamic
	Runtime native.Runtime

	// ConfigDir returns the directory searched for config.yaml when
	// --config is not given.
	// Default: xdg.ConfigDir
	ConfigDir func() (string, error)

	// Now returns the current time, recorded in the metrics textfile.
	// Default: time.Now
	Now func() time.Time
}

func (d *Deps) withDefaults() *Deps {
	out := Deps{}
	if d != nil {
		out = *d
	}
	if out.Executable == nil {
		out.Executable = os.Executable
	}
	if out.Runtime == nil {
		out.Runtime = native.Dynamic{}
	}
	if out.ConfigDir == nil {
		out.ConfigDir = xdg.ConfigDir
	}
	if out.Now == nil {
		out.Now = time.Now
	}
	return &out
}
