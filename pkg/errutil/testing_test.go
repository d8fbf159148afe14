// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 JamHost Contributors

package errutil_test

import (
	"testing"

	"github.com/samber/oops"

	"github.com/jamhost/jamhost/pkg/errutil"
)

func TestAssertErrorCode_MatchingCode(t *testing.T) {
	err := oops.Code("SCAN_DIRECTORY_UNREADABLE").Errorf("cannot list")
	errutil.AssertErrorCode(t, err, "SCAN_DIRECTORY_UNREADABLE")
}

func TestAssertErrorContext_MatchingKeyValue(t *testing.T) {
	err := oops.With("candidate", "libcontrol.so").Errorf("rejected")
	errutil.AssertErrorContext(t, err, "candidate", "libcontrol.so")
}
