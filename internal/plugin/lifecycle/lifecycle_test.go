// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 JamHost Contributors

package lifecycle_test

import (
	"bytes"
	"context"
	"log/slog"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/jamhost/jamhost/internal/observability"
	"github.com/jamhost/jamhost/internal/plugin/lifecycle"
	"github.com/jamhost/jamhost/internal/plugin/native/nativetest"
	"github.com/jamhost/jamhost/pkg/abi"
	"github.com/jamhost/jamhost/pkg/errutil"
)

var _ = Describe("Manager", func() {
	var (
		ctx     context.Context
		rt      *nativetest.Runtime
		plugin  *nativetest.Plugin
		logs    *bytes.Buffer
		metrics *observability.Metrics
		newMgr  func() *lifecycle.Manager
	)

	BeforeEach(func() {
		ctx = context.Background()
		rt = nativetest.NewRuntime()
		plugin = &nativetest.Plugin{Type: abi.PluginTypeControl, Product: "jam"}
		logs = &bytes.Buffer{}
		metrics = observability.NewMetrics()
		newMgr = func() *lifecycle.Manager {
			sel := selectPlugin(rt, plugin)
			logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
			return lifecycle.New(rt, sel, lifecycle.WithLogger(logger), lifecycle.WithMetrics(metrics))
		}
	})

	Describe("a well-behaved control plugin", func() {
		It("runs attach, invoke and detach exactly once each, in order", func() {
			m := newMgr()

			result, err := m.Run(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.DetachErr).NotTo(HaveOccurred())
			Expect(m.State()).To(Equal(lifecycle.Detached))
			Expect(plugin.Calls).To(Equal([]string{
				abi.SymbolReport, abi.SymbolAttach, abi.SymbolInvoke, abi.SymbolDetach,
			}))
		})

		It("invokes control.run with empty payload and options", func() {
			_, err := newMgr().Run(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(plugin.InvokeArgs).To(Equal([][3]string{
				{abi.ControlAddress, abi.EmptyPayload, abi.EmptyOptions},
			}))
			Expect(abi.ControlAddress).To(Equal("control.run"))
			Expect(abi.EmptyPayload).To(Equal("{}"))
			Expect(abi.EmptyOptions).To(Equal("{}"))
		})

		It("returns the response text", func() {
			plugin.Respond = func(string, string, string) string { return `{"status":"ok"}` }

			result, err := newMgr().Run(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Response).To(Equal(`{"status":"ok"}`))
			Expect(logs.String()).To(ContainSubstring("valid_json=true"))
		})

		It("echoes the payload by default", func() {
			result, err := newMgr().Run(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Response).To(Equal("{}"))
		})

		It("passes the plugin's own Invoke address as the dispatch function", func() {
			_, err := newMgr().Run(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(plugin.AttachDispatch).To(Equal(rt.SymbolOf(controlPath, abi.SymbolInvoke)))
		})

		It("never unloads the library", func() {
			_, err := newMgr().Run(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(plugin.Closes).To(BeZero())
		})

		It("counts each successful transition", func() {
			_, err := newMgr().Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			for _, tr := range []string{
				lifecycle.TransitionBind, lifecycle.TransitionAttach,
				lifecycle.TransitionInvoke, lifecycle.TransitionDetach,
			} {
				Expect(testutil.ToFloat64(metrics.TransitionsTotal.WithLabelValues(tr, "success"))).To(Equal(1.0), tr)
			}
		})
	})

	Describe("a non-JSON response", func() {
		It("is returned unchanged and flagged in the log", func() {
			plugin.Respond = func(string, string, string) string { return "plain text" }

			result, err := newMgr().Run(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Response).To(Equal("plain text"))
			Expect(logs.String()).To(ContainSubstring("valid_json=false"))
		})
	})

	Describe("a null response", func() {
		It("is returned as empty text and still detaches", func() {
			plugin.NullResponse = true

			result, err := newMgr().Run(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Response).To(BeEmpty())
			Expect(plugin.Count(abi.SymbolDetach)).To(Equal(1))
			Expect(logs.String()).To(ContainSubstring("control plugin returned no response"))
		})
	})

	Describe("an attach failure", func() {
		BeforeEach(func() {
			plugin.FailAttach = true
			plugin.Reason = "not configured"
		})

		It("is fatal and carries the plugin's reason", func() {
			m := newMgr()

			_, err := m.Run(ctx)

			Expect(errutil.Code(err)).To(Equal(lifecycle.CodeAttachFailed))
			Expect(err.Error()).To(ContainSubstring("not configured"))
			Expect(m.Spent()).To(BeTrue())
			Expect(m.State()).To(Equal(lifecycle.Bound))
		})

		It("never invokes or detaches", func() {
			_, err := newMgr().Run(ctx)

			Expect(err).To(HaveOccurred())
			Expect(plugin.Count(abi.SymbolInvoke)).To(BeZero())
			Expect(plugin.Count(abi.SymbolDetach)).To(BeZero())
			Expect(testutil.ToFloat64(metrics.TransitionsTotal.WithLabelValues(lifecycle.TransitionAttach, "failure"))).
				To(Equal(1.0))
		})

		It("reports a default reason when the plugin wrote none", func() {
			plugin.Reason = ""

			_, err := newMgr().Run(ctx)

			Expect(err.Error()).To(ContainSubstring(abi.NoReason))
		})
	})

	Describe("a detach failure", func() {
		BeforeEach(func() {
			plugin.FailDetach = true
			plugin.Reason = "busy"
		})

		It("does not fail the run", func() {
			m := newMgr()

			result, err := m.Run(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Response).To(Equal("{}"))
			Expect(errutil.Code(result.DetachErr)).To(Equal(lifecycle.CodeDetachFailed))
			Expect(result.DetachErr.Error()).To(ContainSubstring("busy"))
			Expect(m.State()).To(Equal(lifecycle.Detached))
		})

		It("is logged as a warning", func() {
			_, err := newMgr().Run(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(logs.String()).To(ContainSubstring("level=WARN"))
			Expect(logs.String()).To(ContainSubstring(lifecycle.CodeDetachFailed))
		})
	})

	Describe("a library whose symbols disappear before binding", func() {
		It("fails to bind and never attaches", func() {
			sel := selectPlugin(rt, plugin)
			Expect(sel.Library().Close()).To(Succeed())
			m := lifecycle.New(rt, sel)

			_, err := m.Run(ctx)

			Expect(errutil.Code(err)).To(Equal(lifecycle.CodeSymbolResolution))
			Expect(m.State()).To(Equal(lifecycle.Unbound))
			Expect(plugin.Count(abi.SymbolAttach)).To(BeZero())
		})
	})

	Describe("transitions out of order", func() {
		It("refuses Invoke before Attach", func() {
			m := newMgr()
			Expect(m.Bind(ctx)).To(Succeed())

			_, err := m.Invoke(ctx)

			Expect(errutil.Code(err)).To(Equal(lifecycle.CodeInvalidTransition))
			Expect(plugin.Count(abi.SymbolInvoke)).To(BeZero())
			Expect(m.State()).To(Equal(lifecycle.Bound))
		})

		It("refuses Detach before Invoke", func() {
			m := newMgr()
			Expect(m.Bind(ctx)).To(Succeed())
			Expect(m.Attach(ctx)).To(Succeed())

			err := m.Detach(ctx)

			Expect(errutil.Code(err)).To(Equal(lifecycle.CodeInvalidTransition))
			Expect(plugin.Count(abi.SymbolDetach)).To(BeZero())
		})

		It("refuses Attach before Bind", func() {
			err := newMgr().Attach(ctx)

			Expect(errutil.Code(err)).To(Equal(lifecycle.CodeInvalidTransition))
			Expect(plugin.Count(abi.SymbolAttach)).To(BeZero())
		})

		It("refuses to repeat a transition", func() {
			m := newMgr()
			_, err := m.Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(errutil.Code(m.Bind(ctx))).To(Equal(lifecycle.CodeInvalidTransition))
			Expect(errutil.Code(m.Attach(ctx))).To(Equal(lifecycle.CodeInvalidTransition))
			_, err = m.Invoke(ctx)
			Expect(errutil.Code(err)).To(Equal(lifecycle.CodeInvalidTransition))
			Expect(errutil.Code(m.Detach(ctx))).To(Equal(lifecycle.CodeInvalidTransition))

			Expect(plugin.Count(abi.SymbolAttach)).To(Equal(1))
			Expect(plugin.Count(abi.SymbolInvoke)).To(Equal(1))
			Expect(plugin.Count(abi.SymbolDetach)).To(Equal(1))
		})

		It("refuses every transition once spent", func() {
			plugin.FailAttach = true
			m := newMgr()
			Expect(m.Bind(ctx)).To(Succeed())
			Expect(m.Attach(ctx)).NotTo(Succeed())

			err := m.Attach(ctx)

			Expect(errutil.Code(err)).To(Equal(lifecycle.CodeInvalidTransition))
			Expect(plugin.Count(abi.SymbolAttach)).To(Equal(1))
		})
	})
})
