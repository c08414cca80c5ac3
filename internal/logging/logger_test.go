// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package logging

import (
	"testing"
)

func TestDebugLogger(t *testing.T) {
	func() {
		_ = recover()
		NewLogger("DEBUG")
	}()
}

func TestInvalidLevel(t *testing.T) {
	l := NewLogger("invalid")

	if l.Level().String() != "info" {
		t.Errorf("expected fallback level info, got %s", l.Level())
	}
}

func TestWithKeepsSecurityLogger(t *testing.T) {
	l := NewNoopLogger()

	child := l.With("visitor", "abc")

	if child.Security() != l.Security() {
		t.Errorf("expected child logger to share the security logger")
	}

	child.Security().AuthnLoginFail("someone@example.com")
}
