// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 JamHost Contributors

//go:build tools

// Package main pins tool and test dependencies to go.mod.
// See https://go.dev/wiki/Modules#how-can-i-track-tool-dependencies-for-a-module
package main

import (
	// Test runner
	_ "github.com/onsi/ginkgo/v2/ginkgo"

	// Testing frameworks
	_ "github.com/onsi/gomega"
	_ "github.com/stretchr/testify/assert"
	_ "github.com/stretchr/testify/require"
	_ "go.uber.org/goleak"
	_ "pgregory.net/rapid"
)
