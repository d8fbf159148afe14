// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 JamHost Contributors

//go:build darwin || freebsd || linux || windows

package native

import (
	"github.com/ebitengine/purego"

	"github.com/jamhost/jamhost/pkg/abi"
)

// Report binds a Report entry point.
func (Dynamic) Report(sym abi.Symbol) abi.ReportFunc {
	var raw func(errBuf *byte, errCap uintptr, out *abi.Descriptor) bool
	purego.RegisterFunc(&raw, uintptr(sym))
	return func(diag *abi.DiagnosticBuffer, out *abi.Descriptor) bool {
		return raw(diag.Ptr(), diag.Cap(), out)
	}
}

// Attach binds an Attach entry point.
func (Dynamic) Attach(sym abi.Symbol) abi.AttachFunc {
	var raw func(dispatch uintptr, errBuf *byte, errCap uintptr) bool
	purego.RegisterFunc(&raw, uintptr(sym))
	return func(dispatch abi.Symbol, diag *abi.DiagnosticBuffer) bool {
		return raw(uintptr(dispatch), diag.Ptr(), diag.Cap())
	}
}

// Invoke binds an Invoke entry point. purego copies each argument into a
// NUL-terminated buffer that lives for the duration of the call.
func (Dynamic) Invoke(sym abi.Symbol) abi.InvokeFunc {
	var raw func(address, payload, options string) *byte
	purego.RegisterFunc(&raw, uintptr(sym))
	return func(address, payload, options string) abi.Borrowed {
		return abi.BorrowedAt(raw(address, payload, options))
	}
}

// Detach binds a Detach entry point.
func (Dynamic) Detach(sym abi.Symbol) abi.DetachFunc {
	var raw func(errBuf *byte, errCap uintptr) bool
	purego.RegisterFunc(&raw, uintptr(sym))
	return func(diag *abi.DiagnosticBuffer) bool {
		return raw(diag.Ptr(), diag.Cap())
	}
}
