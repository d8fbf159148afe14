// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 JamHost Contributors

// Package probe classifies candidate libraries and selects the control plugin.
//
// A library moves through three representations: a native.Library whose
// interface is unknown, a verified library whose entry points are present and
// whose Report succeeded, and finally a Selection, the one verified library
// declaring itself a control plugin. Only a Selection can be handed to the
// lifecycle.
package probe

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/samber/oops"

	"github.com/jamhost/jamhost/internal/logging"
	"github.com/jamhost/jamhost/internal/observability"
	"github.com/jamhost/jamhost/internal/plugin/native"
	"github.com/jamhost/jamhost/internal/plugin/scan"
	"github.com/jamhost/jamhost/pkg/abi"
	"github.com/jamhost/jamhost/pkg/errutil"
)

// Per-candidate rejection codes. A rejected candidate never stops the scan.
const (
	CodeLoadFailed     = "PROBE_LOAD_FAILED"
	CodeSymbolsMissing = "PROBE_SYMBOLS_MISSING"
	CodeReportFailed   = "PROBE_REPORT_FAILED"
	CodeTypeAbsent     = "PROBE_TYPE_ABSENT"
	CodeTypeMismatch   = "PROBE_TYPE_MISMATCH"
)

// CodeNoControlPlugin is returned when every candidate was rejected.
const CodeNoControlPlugin = "PROBE_NO_CONTROL_PLUGIN"

// Outcome labels for probed candidates.
const (
	OutcomeAccepted = "accepted"
	OutcomeVerified = "verified"
)

var outcomes = map[string]string{
	CodeLoadFailed:     "load_failed",
	CodeSymbolsMissing: "symbols_missing",
	CodeReportFailed:   "report_failed",
	CodeTypeAbsent:     "type_absent",
	CodeTypeMismatch:   "type_mismatch",
}

// OutcomeOf maps a rejection error to its metric label.
func OutcomeOf(err error) string {
	if o, ok := outcomes[errutil.Code(err)]; ok {
		return o
	}
	return "error"
}

// Prober loads candidates one at a time and classifies them.
type Prober struct {
	rt      native.Runtime
	logger  *slog.Logger
	metrics *observability.Metrics
}

// Option configures a Prober.
type Option func(*Prober)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Prober) {
		p.logger = l
	}
}

// WithMetrics records candidate outcomes in m.
func WithMetrics(m *observability.Metrics) Option {
	return func(p *Prober) {
		p.metrics = m
	}
}

// New creates a Prober using rt to open libraries.
// Panics if rt is nil.
func New(rt native.Runtime, opts ...Option) *Prober {
	if rt == nil {
		panic("probe: runtime cannot be nil")
	}
	p := &Prober{rt: rt, logger: logging.Discard()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Selection is the accepted control plugin. It owns its library, which stays
// open for the rest of the process.
type Selection struct {
	candidate scan.Candidate
	lib       native.Library
	info      abi.PluginInfo
}

// Library returns the selected library.
func (s *Selection) Library() native.Library { return s.lib }

// Candidate returns the file the library was loaded from.
func (s *Selection) Candidate() scan.Candidate { return s.candidate }

// Info returns the descriptor the plugin reported.
func (s *Selection) Info() abi.PluginInfo { return s.info }

// verified is a library whose entry points are present and whose Report
// call succeeded.
type verified struct {
	candidate scan.Candidate
	lib       native.Library
	info      abi.PluginInfo
}

// Select walks candidates in order and returns the first control plugin.
// Every rejected library is closed before the next candidate is opened, and
// candidates after the accepted one are never opened.
func (p *Prober) Select(ctx context.Context, candidates iter.Seq[scan.Candidate]) (*Selection, error) {
	seen := 0
	for c := range candidates {
		seen++
		v, err := p.verify(ctx, c)
		if err == nil {
			err = p.requireControl(v)
		}
		if err != nil {
			p.reject(ctx, c, err)
			continue
		}

		p.metrics.ObserveCandidate(OutcomeAccepted)
		p.logger.InfoContext(ctx, "selected control plugin",
			"candidate", c.Name,
			"product", v.info.Product,
			"plugin_id", formatID(v.info.ID))
		return &Selection{candidate: v.candidate, lib: v.lib, info: v.info}, nil
	}

	return nil, oops.Code(CodeNoControlPlugin).
		With("candidates", seen).
		Errorf("no control plugin found")
}

// requireControl closes v unless it declares itself a control plugin.
func (p *Prober) requireControl(v *verified) error {
	var err error
	switch {
	case !v.info.TypePresent:
		err = oops.Code(CodeTypeAbsent).
			With("candidate", v.candidate.Name).
			Errorf("plugin_type is null")
	case !v.info.IsControl():
		err = oops.Code(CodeTypeMismatch).
			With("candidate", v.candidate.Name).
			With("plugin_type", v.info.Type).
			Errorf("not a control plugin (type=%s)", v.info.Type)
	default:
		return nil
	}
	p.release(v.lib)
	return err
}

// Verdict is the classification of one candidate, produced by Inspect.
type Verdict struct {
	Candidate scan.Candidate
	Info      abi.PluginInfo
	Control   bool
	Err       error
}

// Inspect classifies every candidate without selecting one. Each library is
// closed as soon as it has been classified.
func (p *Prober) Inspect(ctx context.Context, candidates iter.Seq[scan.Candidate]) []Verdict {
	var verdicts []Verdict
	for c := range candidates {
		v, err := p.verify(ctx, c)
		if err != nil {
			p.metrics.ObserveCandidate(OutcomeOf(err))
			verdicts = append(verdicts, Verdict{Candidate: c, Err: err})
			continue
		}
		p.release(v.lib)

		verdict := Verdict{Candidate: c, Info: v.info, Control: v.info.IsControl()}
		if !v.info.TypePresent {
			verdict.Err = oops.Code(CodeTypeAbsent).With("candidate", c.Name).Errorf("plugin_type is null")
		}
		p.metrics.ObserveCandidate(OutcomeVerified)
		verdicts = append(verdicts, verdict)
	}
	return verdicts
}

// verify opens c, checks its entry points and calls Report. On error the
// library has already been closed.
func (p *Prober) verify(ctx context.Context, c scan.Candidate) (*verified, error) {
	p.logger.DebugContext(ctx, "found candidate", "candidate", c.Name)

	lib, err := p.rt.Open(c.Path)
	if err != nil {
		return nil, oops.Code(CodeLoadFailed).With("candidate", c.Name).Wrap(err)
	}

	syms := make(map[string]abi.Symbol, len(abi.RequiredSymbols))
	var missing []string
	for _, name := range abi.RequiredSymbols {
		sym, err := lib.Lookup(name)
		if err != nil {
			missing = append(missing, name)
			continue
		}
		syms[name] = sym
	}
	if len(missing) > 0 {
		p.release(lib)
		return nil, oops.Code(CodeSymbolsMissing).
			With("candidate", c.Name).
			With("missing", strings.Join(missing, ",")).
			Errorf("missing required functions: %s", strings.Join(missing, ", "))
	}

	diag := abi.NewDiagnosticBuffer()
	var desc abi.Descriptor
	status := diag.Status(p.rt.Report(syms[abi.SymbolReport])(diag, &desc))
	if !status.OK {
		p.release(lib)
		return nil, oops.Code(CodeReportFailed).
			With("candidate", c.Name).
			With("reason", status.Diagnostic()).
			Errorf("Report failed: %s", status.Diagnostic())
	}

	return &verified{candidate: c, lib: lib, info: desc.Info()}, nil
}

func (p *Prober) reject(ctx context.Context, c scan.Candidate, err error) {
	p.metrics.ObserveCandidate(OutcomeOf(err))
	level := slog.LevelWarn
	if errutil.Code(err) == CodeTypeMismatch {
		level = slog.LevelInfo
	}
	p.logger.Log(ctx, level, "rejected candidate", "candidate", c.Name, "code", errutil.Code(err), "error", err.Error())
}

func (p *Prober) release(lib native.Library) {
	if err := lib.Close(); err != nil {
		p.logger.Warn("failed to unload rejected library", "path", lib.Path(), "error", err)
	}
}

func formatID(id uint64) string {
	return fmt.Sprintf("%#x", id)
}
