// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 JamHost Contributors

//go:build cgo

// Package main implements an echo control plugin for jamhost.
// Invoke returns its payload unchanged.
//
// Build it next to the host binary:
//
//	go build -buildmode=c-shared -o libecho.so ./plugins/echo
//
// The plugin exports Report, Attach, Invoke and Detach as declared in
// pkg/abi/jamhost_plugin.h.
package main

/*
#cgo CFLAGS: -I${SRCDIR}/../../pkg/abi
#define JAMHOST_OMIT_PROTOTYPES
#include <stdlib.h>
#include "jamhost_plugin.h"
*/
import "C"

import (
	"unsafe"
)

const pluginID = 0xEC40

// Descriptor text lives for as long as the library is loaded.
var (
	pluginType       = C.CString("control")
	product          = C.CString("echo")
	descriptionLong  = C.CString("Control plugin that answers every invocation with its payload.")
	descriptionShort = C.CString("echo control plugin")
)

var (
	attached bool
	dispatch C.jam_dispatch_fn
	// response is returned from Invoke and freed on the next call.
	response *C.char
)

// writeReason copies msg into the host's diagnostic buffer, truncated to fit
// and NUL-terminated.
func writeReason(buf *C.char, capacity C.size_t, msg string) {
	if buf == nil || capacity == 0 {
		return
	}
	dst := unsafe.Slice((*byte)(unsafe.Pointer(buf)), int(capacity))
	n := copy(dst[:len(dst)-1], msg)
	dst[n] = 0
}

//export Report
func Report(errBuf *C.char, errCap C.size_t, out *C.jam_descriptor) C.bool {
	if out == nil {
		writeReason(errBuf, errCap, "descriptor pointer is null")
		return false
	}
	out.plugin_type = pluginType
	out.product = product
	out.description_long = descriptionLong
	out.description_short = descriptionShort
	out.plugin_id = C.uint64_t(pluginID)
	return true
}

//export Attach
func Attach(fn C.jam_dispatch_fn, errBuf *C.char, errCap C.size_t) C.bool {
	if attached {
		writeReason(errBuf, errCap, "already attached")
		return false
	}
	dispatch = fn
	attached = true
	return true
}

//export Invoke
func Invoke(address, payload, options *C.char) *C.char {
	releaseResponse()
	if payload == nil {
		response = C.CString("")
		return response
	}
	response = C.CString(C.GoString(payload))
	return response
}

//export Detach
func Detach(errBuf *C.char, errCap C.size_t) C.bool {
	if !attached {
		writeReason(errBuf, errCap, "not attached")
		return false
	}
	releaseResponse()
	dispatch = nil
	attached = false
	return true
}

func releaseResponse() {
	if response != nil {
		C.free(unsafe.Pointer(response))
		response = nil
	}
}

func main() {}
