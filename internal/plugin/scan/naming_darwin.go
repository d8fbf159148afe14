// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 JamHost Contributors

package scan

// Shared library naming convention on macOS.
const (
	LibraryPrefix = "lib"
	LibrarySuffix = ".dylib"
)
