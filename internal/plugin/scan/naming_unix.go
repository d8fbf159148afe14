// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 JamHost Contributors

//go:build !darwin && !windows

package scan

// Shared library naming convention on ELF platforms.
const (
	LibraryPrefix = "lib"
	LibrarySuffix = ".so"
)
