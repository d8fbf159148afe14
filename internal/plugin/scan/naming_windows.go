// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 JamHost Contributors

package scan

// DLLs carry no conventional prefix.
const (
	LibraryPrefix = ""
	LibrarySuffix = ".dll"
)
