// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 JamHost Contributors

package abi

import "unsafe"

// Borrowed is NUL-terminated text owned by a plugin library. It is valid only
// until the next call into that library, so the only thing to do with it is
// Copy.
type Borrowed struct {
	ptr *byte
}

// BorrowedAt wraps a library-owned pointer. A nil pointer yields a null value.
func BorrowedAt(ptr *byte) Borrowed {
	return Borrowed{ptr: ptr}
}

// IsNull reports whether the library returned a null pointer.
func (b Borrowed) IsNull() bool {
	return b.ptr == nil
}

// Copy reads up to the terminating NUL into a host-owned string.
// Null text copies as the empty string.
func (b Borrowed) Copy() string {
	if b.ptr == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(unsafe.Pointer(b.ptr), n)) != 0 {
		n++
	}
	return string(unsafe.Slice(b.ptr, n))
}
