// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package gate

import (
	"context"

	"github.com/canonical/customer-portal/pkg/session"
)

// VisitorInterface is the session state of the visitor behind a request.
type VisitorInterface interface {
	Snapshot() session.State
	WaitSettled(context.Context) error
}
