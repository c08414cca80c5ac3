// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package session

import (
	"context"

	"github.com/canonical/customer-portal/internal/types"
	"github.com/canonical/customer-portal/pkg/identity"
)

// ProviderInterface is the part of the visitor's identity client the
// Context listens to.
type ProviderInterface interface {
	OnAuthStateChange(identity.Listener) func()
	GetSession(context.Context) (*identity.Session, error)
}

type AuthServiceInterface interface {
	SignUp(ctx context.Context, email, password string, meta identity.Metadata) (*identity.SignUpResult, error)
	SignIn(ctx context.Context, email, password string) (*identity.Session, error)
	SignOut(ctx context.Context) error
	GetCurrentUser(ctx context.Context) (*types.AuthUser, error)
}
