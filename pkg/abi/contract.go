// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 JamHost Contributors

package abi

// Exported symbol names every plugin must provide.
const (
	SymbolReport = "Report"
	SymbolAttach = "Attach"
	SymbolInvoke = "Invoke"
	SymbolDetach = "Detach"
)

// ControlSymbols are the entry points the lifecycle binds.
var ControlSymbols = []string{SymbolAttach, SymbolDetach, SymbolInvoke}

// RequiredSymbols are the entry points a candidate needs to be classified.
var RequiredSymbols = []string{SymbolAttach, SymbolDetach, SymbolInvoke, SymbolReport}

// PluginTypeControl is the plugin_type a control plugin reports.
const PluginTypeControl = "control"

// The single invocation performed per run.
const (
	ControlAddress = "control.run"
	EmptyPayload   = "{}"
	EmptyOptions   = "{}"
)

// Symbol is the raw address of an entry point inside a loaded library.
// It is meaningless once the library is closed.
type Symbol uintptr

// ReportFunc fills out with library-owned descriptor text.
type ReportFunc func(diag *DiagnosticBuffer, out *Descriptor) bool

// AttachFunc performs one-time setup. dispatch has the same calling
// convention as Invoke.
type AttachFunc func(dispatch Symbol, diag *DiagnosticBuffer) bool

// InvokeFunc performs a synchronous call. The response is library-owned.
type InvokeFunc func(address, payload, options string) Borrowed

// DetachFunc performs one-time teardown.
type DetachFunc func(diag *DiagnosticBuffer) bool
