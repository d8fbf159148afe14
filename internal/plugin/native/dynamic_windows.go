// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 JamHost Contributors

//go:build windows

package native

import (
	"fmt"

	"golang.org/x/sys/windows"

	"github.com/jamhost/jamhost/pkg/abi"
)

// Open loads the DLL at path.
func (Dynamic) Open(path string) (Library, error) {
	dll, err := windows.LoadDLL(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpen, path, err)
	}
	return &dllLibrary{path: path, dll: dll}, nil
}

type dllLibrary struct {
	path string
	dll  *windows.DLL
}

func (l *dllLibrary) Path() string { return l.path }

func (l *dllLibrary) Lookup(name string) (abi.Symbol, error) {
	proc, err := l.dll.FindProc(name)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrSymbolMissing, name, err)
	}
	return abi.Symbol(proc.Addr()), nil
}

func (l *dllLibrary) Close() error {
	if err := l.dll.Release(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrClose, l.path, err)
	}
	return nil
}
