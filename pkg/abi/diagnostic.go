// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 JamHost Contributors

package abi

import (
	"bytes"
	"strings"
)

// DiagnosticCapacity is the size of every diagnostic buffer handed to a plugin,
// terminator included.
const DiagnosticCapacity = 256

// MaxDiagnosticLen is the longest reason text the host will decode.
const MaxDiagnosticLen = DiagnosticCapacity - 1

// NoReason is reported when a plugin fails without writing a reason.
const NoReason = "no reason given"

// DiagnosticBuffer is a host-owned, zeroed buffer a plugin may write a
// NUL-terminated failure reason into. Use a fresh buffer for every call.
type DiagnosticBuffer struct {
	buf [DiagnosticCapacity]byte
}

// NewDiagnosticBuffer returns a zeroed buffer.
func NewDiagnosticBuffer() *DiagnosticBuffer {
	return &DiagnosticBuffer{}
}

// Ptr returns the address handed across the boundary.
func (d *DiagnosticBuffer) Ptr() *byte {
	return &d.buf[0]
}

// Cap returns the declared capacity handed across the boundary.
func (d *DiagnosticBuffer) Cap() uintptr {
	return DiagnosticCapacity
}

// Bytes exposes the raw buffer. Plugin stubs write through it.
func (d *DiagnosticBuffer) Bytes() []byte {
	return d.buf[:]
}

// Text decodes the buffer. Decoding stops at the first NUL; a buffer with no
// terminator is truncated to MaxDiagnosticLen bytes. Invalid UTF-8 sequences
// are replaced with U+FFFD.
func (d *DiagnosticBuffer) Text() string {
	raw := d.buf[:MaxDiagnosticLen]
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	return strings.ToValidUTF8(string(raw), "\uFFFD")
}

// Status combines a success flag with the decoded buffer.
func (d *DiagnosticBuffer) Status(ok bool) Status {
	return Status{OK: ok, Reason: d.Text()}
}

// Status is the outcome of a boundary call that reports through a
// DiagnosticBuffer.
type Status struct {
	OK     bool
	Reason string
}

// Diagnostic returns the reason text, or NoReason when the plugin left the
// buffer empty.
func (s Status) Diagnostic() string {
	if s.Reason == "" {
		return NoReason
	}
	return s.Reason
}
