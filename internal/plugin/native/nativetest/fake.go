// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 JamHost Contributors

// Package nativetest provides an in-memory native runtime for tests.
package nativetest

import (
	"fmt"
	"slices"

	"github.com/jamhost/jamhost/internal/plugin/native"
	"github.com/jamhost/jamhost/pkg/abi"
)

// Compile-time interface check.
var _ native.Runtime = (*Runtime)(nil)

// Plugin describes how a fake library behaves when called.
type Plugin struct {
	Type             string
	NullType         bool // leave plugin_type null
	Product          string
	DescriptionLong  string
	DescriptionShort string
	ID               uint64

	// FailOpen makes Open fail as if the file were not a loadable library.
	FailOpen bool
	// Missing lists exported symbols the library lacks.
	Missing []string

	FailReport bool
	FailAttach bool
	FailDetach bool
	// Reason is written to the diagnostic buffer when a call fails.
	Reason string

	// Respond computes the Invoke response. Nil echoes the payload.
	Respond func(address, payload, options string) string
	// NullResponse makes Invoke return a null pointer.
	NullResponse bool

	// Recorded interaction.
	Opens          int
	Closes         int
	Calls          []string
	AttachDispatch abi.Symbol
	InvokeArgs     [][3]string

	strs     [][]byte // library-owned descriptor text
	response []byte   // library-owned, replaced on every Invoke
}

func (p *Plugin) cstr(s string) *byte {
	b := append([]byte(s), 0)
	p.strs = append(p.strs, b)
	return &b[0]
}

func (p *Plugin) has(symbol string) bool {
	return !slices.Contains(p.Missing, symbol)
}

// Count returns how many times symbol was called.
func (p *Plugin) Count(symbol string) int {
	n := 0
	for _, c := range p.Calls {
		if c == symbol {
			n++
		}
	}
	return n
}

type entry struct {
	plugin *Plugin
	name   string
}

// Runtime is a native.Runtime whose libraries are Plugin values keyed by path.
type Runtime struct {
	plugins map[string]*Plugin
	symbols map[abi.Symbol]entry
	addrs   map[string]map[string]abi.Symbol
	next    abi.Symbol

	// Opened records every path passed to Open, in order.
	Opened []string
}

// NewRuntime returns an empty fake runtime.
func NewRuntime() *Runtime {
	return &Runtime{
		plugins: make(map[string]*Plugin),
		symbols: make(map[abi.Symbol]entry),
		addrs:   make(map[string]map[string]abi.Symbol),
		next:    0x1000,
	}
}

// Add registers p as the library found at path and returns p.
func (r *Runtime) Add(path string, p *Plugin) *Plugin {
	r.plugins[path] = p
	r.addrs[path] = make(map[string]abi.Symbol)
	for _, name := range abi.RequiredSymbols {
		if !p.has(name) {
			continue
		}
		r.next += 0x10
		r.symbols[r.next] = entry{plugin: p, name: name}
		r.addrs[path][name] = r.next
	}
	return p
}

// Control registers a well-behaved control plugin at path.
func (r *Runtime) Control(path string) *Plugin {
	return r.Add(path, &Plugin{Type: abi.PluginTypeControl, Product: "jam", ID: 0x1})
}

// SymbolOf returns the address assigned to symbol in the library at path.
func (r *Runtime) SymbolOf(path, symbol string) abi.Symbol {
	return r.addrs[path][symbol]
}

// Open implements native.Runtime.
func (r *Runtime) Open(path string) (native.Library, error) {
	r.Opened = append(r.Opened, path)
	p, ok := r.plugins[path]
	if !ok || p.FailOpen {
		return nil, fmt.Errorf("%w: %s: invalid ELF header", native.ErrOpen, path)
	}
	p.Opens++
	return &library{path: path, plugin: p, addrs: r.addrs[path]}, nil
}

func (r *Runtime) resolve(sym abi.Symbol, want string) *Plugin {
	e, ok := r.symbols[sym]
	if !ok || e.name != want {
		panic(fmt.Sprintf("nativetest: %#x is not a %s entry point", uintptr(sym), want))
	}
	return e.plugin
}

// Report implements native.Runtime.
func (r *Runtime) Report(sym abi.Symbol) abi.ReportFunc {
	p := r.resolve(sym, abi.SymbolReport)
	return func(diag *abi.DiagnosticBuffer, out *abi.Descriptor) bool {
		p.Calls = append(p.Calls, abi.SymbolReport)
		if p.FailReport {
			WriteDiagnostic(diag, p.Reason)
			return false
		}
		if !p.NullType {
			out.PluginType = p.cstr(p.Type)
		}
		out.Product = p.cstr(p.Product)
		out.DescriptionLong = p.cstr(p.DescriptionLong)
		out.DescriptionShort = p.cstr(p.DescriptionShort)
		out.PluginID = p.ID
		return true
	}
}

// Attach implements native.Runtime.
func (r *Runtime) Attach(sym abi.Symbol) abi.AttachFunc {
	p := r.resolve(sym, abi.SymbolAttach)
	return func(dispatch abi.Symbol, diag *abi.DiagnosticBuffer) bool {
		p.Calls = append(p.Calls, abi.SymbolAttach)
		p.AttachDispatch = dispatch
		if p.FailAttach {
			WriteDiagnostic(diag, p.Reason)
			return false
		}
		return true
	}
}

// Invoke implements native.Runtime.
func (r *Runtime) Invoke(sym abi.Symbol) abi.InvokeFunc {
	p := r.resolve(sym, abi.SymbolInvoke)
	return func(address, payload, options string) abi.Borrowed {
		p.Calls = append(p.Calls, abi.SymbolInvoke)
		p.InvokeArgs = append(p.InvokeArgs, [3]string{address, payload, options})
		if p.NullResponse {
			return abi.BorrowedAt(nil)
		}
		resp := payload
		if p.Respond != nil {
			resp = p.Respond(address, payload, options)
		}
		p.response = append([]byte(resp), 0)
		return abi.BorrowedAt(&p.response[0])
	}
}

// Detach implements native.Runtime.
func (r *Runtime) Detach(sym abi.Symbol) abi.DetachFunc {
	p := r.resolve(sym, abi.SymbolDetach)
	return func(diag *abi.DiagnosticBuffer) bool {
		p.Calls = append(p.Calls, abi.SymbolDetach)
		if p.FailDetach {
			WriteDiagnostic(diag, p.Reason)
			return false
		}
		return true
	}
}

type library struct {
	path   string
	plugin *Plugin
	addrs  map[string]abi.Symbol
	closed bool
}

func (l *library) Path() string { return l.path }

func (l *library) Lookup(name string) (abi.Symbol, error) {
	if l.closed {
		return 0, fmt.Errorf("%w: %s: library closed", native.ErrSymbolMissing, name)
	}
	sym, ok := l.addrs[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s: undefined symbol", native.ErrSymbolMissing, name)
	}
	return sym, nil
}

func (l *library) Close() error {
	if l.closed {
		return fmt.Errorf("%w: %s: closed twice", native.ErrClose, l.path)
	}
	l.closed = true
	l.plugin.Closes++
	return nil
}

// WriteDiagnostic writes msg the way a well-behaved C plugin would with
// snprintf: truncated to fit and always NUL-terminated.
func WriteDiagnostic(diag *abi.DiagnosticBuffer, msg string) {
	buf := diag.Bytes()
	n := copy(buf[:len(buf)-1], msg)
	buf[n] = 0
}
