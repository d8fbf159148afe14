// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 JamHost Contributors

// Package lifecycle drives the selected control plugin through
// Bind, Attach, Invoke and Detach.
package lifecycle

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jamhost/jamhost/internal/logging"
	"github.com/jamhost/jamhost/internal/observability"
	"github.com/jamhost/jamhost/internal/plugin/native"
	"github.com/jamhost/jamhost/internal/plugin/probe"
	"github.com/jamhost/jamhost/pkg/abi"
	"github.com/jamhost/jamhost/pkg/errutil"
)

// Error codes.
const (
	CodeSymbolResolution  = "LIFECYCLE_SYMBOL_RESOLUTION"
	CodeAttachFailed      = "LIFECYCLE_ATTACH_FAILED"
	CodeDetachFailed      = "LIFECYCLE_DETACH_FAILED"
	CodeInvalidTransition = "LIFECYCLE_INVALID_TRANSITION"
)

// Transition names, used for spans and metrics.
const (
	TransitionBind   = "bind"
	TransitionAttach = "attach"
	TransitionInvoke = "invoke"
	TransitionDetach = "detach"
)

// State is a lifecycle state. States only move forward.
type State int

// Lifecycle states.
const (
	Unbound State = iota
	Bound
	Attached
	Invoked
	Detached
)

var stateNames = [...]string{"unbound", "bound", "attached", "invoked", "detached"}

func (s State) String() string {
	if s < Unbound || s > Detached {
		return "unknown"
	}
	return stateNames[s]
}

// Binding holds the entry points resolved from the selected library.
type Binding struct {
	Attach abi.AttachFunc
	Detach abi.DetachFunc
	Invoke abi.InvokeFunc
	// Dispatch is the raw Invoke address handed to Attach.
	Dispatch abi.Symbol
}

// Result is the outcome of a complete run.
type Result struct {
	Response string
	// DetachErr is set when Detach reported failure. It does not fail the run.
	DetachErr error
}

// Manager owns the selected library for the rest of the process and never
// closes it.
type Manager struct {
	rt      native.Runtime
	sel     *probe.Selection
	logger  *slog.Logger
	metrics *observability.Metrics
	tracer  trace.Tracer

	state   State
	spent   bool
	binding *Binding
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithMetrics records transitions in metrics.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithTracer replaces the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(m *Manager) {
		m.tracer = t
	}
}

// New creates a Manager for sel in state Unbound.
// Panics if rt or sel is nil.
func New(rt native.Runtime, sel *probe.Selection, opts ...Option) *Manager {
	if rt == nil {
		panic("lifecycle: runtime cannot be nil")
	}
	if sel == nil {
		panic("lifecycle: selection cannot be nil")
	}
	m := &Manager{
		rt:     rt,
		sel:    sel,
		logger: logging.Discard(),
		tracer: otel.Tracer("jamhost/lifecycle"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current state.
func (m *Manager) State() State {
	return m.state
}

// Spent reports whether a transition has failed. A spent manager refuses
// every further transition.
func (m *Manager) Spent() bool {
	return m.spent
}

// Bind resolves Attach, Detach and Invoke from the selected library.
func (m *Manager) Bind(ctx context.Context) error {
	return m.transition(ctx, TransitionBind, Unbound, Bound, func(context.Context) error {
		lib := m.sel.Library()
		syms := make(map[string]abi.Symbol, len(abi.ControlSymbols))
		for _, name := range abi.ControlSymbols {
			sym, err := lib.Lookup(name)
			if err != nil {
				return oops.Code(CodeSymbolResolution).
					With("path", lib.Path()).
					With("symbol", name).
					Wrap(err)
			}
			syms[name] = sym
		}
		m.binding = &Binding{
			Attach:   m.rt.Attach(syms[abi.SymbolAttach]),
			Detach:   m.rt.Detach(syms[abi.SymbolDetach]),
			Invoke:   m.rt.Invoke(syms[abi.SymbolInvoke]),
			Dispatch: syms[abi.SymbolInvoke],
		}
		return nil
	})
}

// Attach performs the plugin's one-time setup, handing it the Invoke
// address as its dispatch function.
func (m *Manager) Attach(ctx context.Context) error {
	return m.transition(ctx, TransitionAttach, Bound, Attached, func(context.Context) error {
		diag := abi.NewDiagnosticBuffer()
		status := diag.Status(m.binding.Attach(m.binding.Dispatch, diag))
		if !status.OK {
			return oops.Code(CodeAttachFailed).
				With("path", m.sel.Library().Path()).
				With("reason", status.Diagnostic()).
				Errorf("Attach failed: %s", status.Diagnostic())
		}
		return nil
	})
}

// Invoke performs the single control call and returns a host-owned copy of
// the response. A null response is returned as empty text.
func (m *Manager) Invoke(ctx context.Context) (string, error) {
	var response string
	err := m.transition(ctx, TransitionInvoke, Attached, Invoked, func(ctx context.Context) error {
		borrowed := m.binding.Invoke(abi.ControlAddress, abi.EmptyPayload, abi.EmptyOptions)
		if borrowed.IsNull() {
			m.logger.WarnContext(ctx, "control plugin returned no response", "address", abi.ControlAddress)
			return nil
		}
		response = borrowed.Copy()
		m.logger.InfoContext(ctx, "control plugin responded",
			"address", abi.ControlAddress,
			"response", response,
			"valid_json", gjson.Valid(response))
		return nil
	})
	return response, err
}

// Detach performs the plugin's one-time teardown. A failure is logged as a
// warning and returned, but the manager still ends Detached. The library is
// left loaded.
func (m *Manager) Detach(ctx context.Context) error {
	err := m.transition(ctx, TransitionDetach, Invoked, Detached, func(context.Context) error {
		diag := abi.NewDiagnosticBuffer()
		status := diag.Status(m.binding.Detach(diag))
		if !status.OK {
			return oops.Code(CodeDetachFailed).
				With("path", m.sel.Library().Path()).
				With("reason", status.Diagnostic()).
				Errorf("Detach failed: %s", status.Diagnostic())
		}
		return nil
	})
	if errutil.Code(err) == CodeDetachFailed {
		m.state = Detached
		errutil.LogWarn(ctx, m.logger, "control plugin detach failed", err)
	}
	return err
}

// Run performs the whole lifecycle. The returned error is set only for
// fatal failures; a Detach failure is reported in Result.DetachErr.
func (m *Manager) Run(ctx context.Context) (Result, error) {
	if err := m.Bind(ctx); err != nil {
		return Result{}, err
	}
	if err := m.Attach(ctx); err != nil {
		return Result{}, err
	}
	response, err := m.Invoke(ctx)
	if err != nil {
		return Result{}, err
	}
	return Result{Response: response, DetachErr: m.Detach(ctx)}, nil
}

func (m *Manager) transition(ctx context.Context, name string, from, to State, fn func(context.Context) error) (err error) {
	if m.spent || m.state != from {
		return oops.Code(CodeInvalidTransition).
			With("state", m.state.String()).
			With("transition", name).
			With("spent", m.spent).
			Errorf("cannot %s from state %s", name, m.state)
	}

	ctx, span := m.tracer.Start(ctx, "lifecycle."+name,
		trace.WithAttributes(
			attribute.String("plugin.path", m.sel.Library().Path()),
			attribute.String("lifecycle.from", from.String()),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	err = fn(ctx)
	m.metrics.ObserveTransition(name, err == nil)
	if err != nil {
		m.spent = true
		return err
	}
	m.state = to
	m.logger.DebugContext(ctx, "lifecycle transition", "transition", name, "state", to.String())
	return nil
}
