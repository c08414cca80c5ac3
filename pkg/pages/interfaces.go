// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package pages

import (
	"context"

	"github.com/canonical/customer-portal/internal/types"
	"github.com/canonical/customer-portal/pkg/identity"
	"github.com/canonical/customer-portal/pkg/session"
	"github.com/canonical/customer-portal/pkg/tickets"
)

// VisitorInterface is the per-visitor session context, see session.Context.
type VisitorInterface interface {
	Snapshot() session.State
	WaitSettled(context.Context) error
	SignIn(ctx context.Context, email, password string) (*identity.Session, error)
	SignUp(ctx context.Context, email, password string, meta identity.Metadata) (*identity.SignUpResult, error)
	SignOut(ctx context.Context) error
}

type RegistryInterface interface {
	Lookup(ctx context.Context, visitorID, token string) (VisitorInterface, error)
}

type TicketsInterface interface {
	Create(ctx context.Context, userID string, d tickets.Draft) (*types.Ticket, error)
}
