// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 JamHost Contributors

// Package native opens shared libraries and turns raw entry-point addresses
// into callable Go functions.
package native

import (
	"errors"

	"github.com/jamhost/jamhost/pkg/abi"
)

// Sentinel errors for programmatic error checking.
var (
	// ErrOpen is returned when a file cannot be loaded as a native library.
	ErrOpen = errors.New("cannot load library")
	// ErrSymbolMissing is returned when a library does not export a symbol.
	ErrSymbolMissing = errors.New("symbol not found")
	// ErrClose is returned when a library cannot be unloaded.
	ErrClose = errors.New("cannot unload library")
	// ErrUnsupported is returned on platforms without a dynamic loader binding.
	ErrUnsupported = errors.New("native plugins not supported on this platform")
)

// Library is an opened native library whose interface has not been checked.
// Symbols looked up from it are valid only until Close.
type Library interface {
	// Path returns the file the library was opened from.
	Path() string
	// Lookup resolves an exported symbol by name.
	Lookup(name string) (abi.Symbol, error)
	// Close unmaps the library.
	Close() error
}

// Runtime opens libraries and binds their entry points.
type Runtime interface {
	// Open loads the library at path.
	Open(path string) (Library, error)
	// Report binds a Report entry point.
	Report(sym abi.Symbol) abi.ReportFunc
	// Attach binds an Attach entry point.
	Attach(sym abi.Symbol) abi.AttachFunc
	// Invoke binds an Invoke entry point.
	Invoke(sym abi.Symbol) abi.InvokeFunc
	// Detach binds a Detach entry point.
	Detach(sym abi.Symbol) abi.DetachFunc
}

// Compile-time interface check.
var _ Runtime = Dynamic{}

// Dynamic is the Runtime backed by the operating system's dynamic loader.
type Dynamic struct{}
