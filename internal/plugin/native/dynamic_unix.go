// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 JamHost Contributors

//go:build darwin || freebsd || linux

package native

import (
	"fmt"

	"github.com/ebitengine/purego"

	"github.com/jamhost/jamhost/pkg/abi"
)

// Open loads the library with every symbol resolved up front and kept out of
// the global namespace, so one candidate cannot satisfy another's imports.
func (Dynamic) Open(path string) (Library, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpen, path, err)
	}
	return &dlLibrary{path: path, handle: handle}, nil
}

type dlLibrary struct {
	path   string
	handle uintptr
}

func (l *dlLibrary) Path() string { return l.path }

func (l *dlLibrary) Lookup(name string) (abi.Symbol, error) {
	addr, err := purego.Dlsym(l.handle, name)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrSymbolMissing, name, err)
	}
	if addr == 0 {
		return 0, fmt.Errorf("%w: %s", ErrSymbolMissing, name)
	}
	return abi.Symbol(addr), nil
}

func (l *dlLibrary) Close() error {
	if err := purego.Dlclose(l.handle); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrClose, l.path, err)
	}
	return nil
}
