// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 JamHost Contributors

//go:build !darwin && !freebsd && !linux && !windows

package native

import (
	"fmt"
	"runtime"

	"github.com/jamhost/jamhost/pkg/abi"
)

func unsupported() error {
	return fmt.Errorf("%w: %s", ErrUnsupported, runtime.GOOS)
}

// Open always fails on this platform.
func (Dynamic) Open(string) (Library, error) { return nil, unsupported() }

// Report panics; Open never yields a library to resolve it from.
func (Dynamic) Report(abi.Symbol) abi.ReportFunc { panic(unsupported()) }

// Attach panics; Open never yields a library to resolve it from.
func (Dynamic) Attach(abi.Symbol) abi.AttachFunc { panic(unsupported()) }

// Invoke panics; Open never yields a library to resolve it from.
func (Dynamic) Invoke(abi.Symbol) abi.InvokeFunc { panic(unsupported()) }

// Detach panics; Open never yields a library to resolve it from.
func (Dynamic) Detach(abi.Symbol) abi.DetachFunc { panic(unsupported()) }
