// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 JamHost Contributors

// Package abi defines the binary contract between jamhost and a native plugin.
//
// A plugin is a shared library exporting four C-callable entry points:
//
//	bool        Report(char* err_buf, size_t err_cap, jam_descriptor* out);
//	bool        Attach(jam_dispatch_fn dispatch, char* err_buf, size_t err_cap);
//	const char* Invoke(const char* address, const char* payload, const char* options);
//	bool        Detach(char* err_buf, size_t err_cap);
//
// The same contract is available to C authors in jamhost_plugin.h.
//
// Text crossing the boundary has one of two owners. Diagnostic buffers and
// argument text are host-owned: they live for the duration of a single call and
// the plugin must not retain them. Descriptor fields and Invoke responses are
// library-owned ([Borrowed]): they stay valid only until the next call into the
// same library, so the host copies them out immediately.
package abi
